package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/venuely/internal/mailer"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/payment"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepo(t *testing.T) *models.GormRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))
	return models.GormNewRepo(db)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateTransaction(ctx context.Context, req payment.TransactionRequest) (*payment.Transaction, error) {
	args := m.Called(ctx, req)
	tx, _ := args.Get(0).(*payment.Transaction)
	return tx, args.Error(1)
}

func (m *mockGateway) TransactionStatus(ctx context.Context, orderID string) (*payment.Notification, error) {
	args := m.Called(ctx, orderID)
	n, _ := args.Get(0).(*payment.Notification)
	return n, args.Error(1)
}

// recordingMailer keeps every message it is asked to send.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingMailer) messages() []mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mailer.Message(nil), r.sent...)
}

func int64p(v int64) *int64 { return &v }

func seedVenue(t *testing.T, repo *models.GormRepo, owner uuid.UUID, mode models.PricingMode, unit int64, capacity int) *models.Venue {
	t.Helper()
	v := &models.Venue{
		OwnerID:     owner,
		Name:        "Aula Merdeka",
		Capacity:    capacity,
		PricingMode: mode,
		Address:     "Jl. Merdeka 10, Jakarta",
		City:        "Jakarta",
		Description: "Large hall with a stage and sound system",
	}
	if mode == models.PricingDaily {
		v.PricePerDay = int64p(unit)
	} else {
		v.PricePerHour = int64p(unit)
	}
	require.NoError(t, repo.CreateVenue(context.Background(), v, models.VenueAssociations{}))
	return v
}
