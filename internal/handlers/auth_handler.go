package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/joshua-takyi/venuely/internal/services"
)

func CreateUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in models.SignupInput
		if !bindJSON(c, &in) {
			return
		}

		res, err := u.CreateUser(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(res, "account created, check your inbox to confirm your email"))
	}
}

// AuthenticateUser signs in with email and password and sets the session
// cookies. Tokens are not returned in the body.
func AuthenticateUser(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in models.LoginInput
		if !bindJSON(c, &in) {
			return
		}

		tokenRes, err := u.AuthenticateUser(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		if tokenRes == nil || tokenRes.AccessToken == "" {
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("invalid email or password"))
			return
		}

		helpers.SetAuthCookies(c, tokenRes, secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"user": tokenRes.User}, "logged in"))
	}
}

func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		helpers.ClearAuthCookies(c, secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "logged out"))
	}
}

func Me(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actor, ok := currentUser(c)
		if !ok {
			return
		}
		profile, err := u.GetProfile(c.Request.Context(), actor.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(profile, ""))
	}
}
