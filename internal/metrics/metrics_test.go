package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/venues/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/venues/:id", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/venues/abc", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/venues/:id", "200")))
}

func TestCounters(t *testing.T) {
	created := testutil.ToFloat64(bookingsCreated)
	IncBookingCreated()
	assert.Equal(t, created+1, testutil.ToFloat64(bookingsCreated))

	failed := testutil.ToFloat64(emailsSent.WithLabelValues("invoice", "error"))
	IncEmail("invoice", errors.New("smtp down"))
	assert.Equal(t, failed+1, testutil.ToFloat64(emailsSent.WithLabelValues("invoice", "error")))

	success := testutil.ToFloat64(bookingStatus.WithLabelValues("SUCCESS"))
	IncBookingStatus("SUCCESS")
	assert.Equal(t, success+1, testutil.ToFloat64(bookingStatus.WithLabelValues("SUCCESS")))
}
