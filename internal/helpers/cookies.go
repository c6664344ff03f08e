package helpers

import (
	"github.com/gin-gonic/gin"
	"github.com/supabase-community/gotrue-go/types"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	refreshTokenMaxAge = 3600 * 24 * 30
)

// SetAuthCookies stores the session tokens as HttpOnly cookies.
func SetAuthCookies(c *gin.Context, tok *types.TokenResponse, secure bool) {
	c.SetCookie(AccessTokenCookie, tok.AccessToken, tok.ExpiresIn, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, tok.RefreshToken, refreshTokenMaxAge, "/", "", secure, true)
}

func ClearAuthCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}
