package helpers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
		Roles     []string `json:"roles,omitempty"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Metadata returns a string value from user_metadata.
func (c *CustomClaims) Metadata(key string) string {
	if c.UserMetadata == nil {
		return ""
	}
	if v, ok := c.UserMetadata[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// TokenValidator verifies access tokens issued by the auth provider. With a
// shared secret it checks HS256 signatures; otherwise it uses the provider's
// JWKS, refreshed in the background.
type TokenValidator struct {
	jwks   *keyfunc.JWKS
	secret []byte
}

func NewTokenValidator(ctx context.Context, supabaseURL, jwtSecret string) (*TokenValidator, error) {
	if jwtSecret != "" {
		return &TokenValidator{secret: []byte(jwtSecret)}, nil
	}
	if supabaseURL == "" {
		return nil, errors.New("SUPABASE_URL not set")
	}

	jwksURL := fmt.Sprintf("%s/auth/v1/.well-known/jwks.json", strings.TrimRight(supabaseURL, "/"))
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "load jwks")
	}
	return &TokenValidator{jwks: jwks}, nil
}

// NewSecretValidator is the HS256-only validator.
func NewSecretValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

func (v *TokenValidator) keyfunc(token *jwt.Token) (interface{}, error) {
	if v.secret != nil {
		return v.secret, nil
	}
	return v.jwks.Keyfunc(token)
}

func (v *TokenValidator) methods() []string {
	if v.secret != nil {
		return []string{jwt.SigningMethodHS256.Alg()}
	}
	return []string{"RS256", "ES256"}
}

func (v *TokenValidator) ValidateToken(tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, v.keyfunc,
		jwt.WithValidMethods(v.methods()),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "token validation failed")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *TokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

var (
	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	numberRe  = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[@$!%*?&#^()\-_=+.,;:]`)
)

func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	return lowerRe.MatchString(password) &&
		upperRe.MatchString(password) &&
		numberRe.MatchString(password) &&
		specialRe.MatchString(password)
}

// StringTrim strips whitespace and stray quotes from path params.
func StringTrim(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\"'")
}
