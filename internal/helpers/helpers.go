package helpers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/pkg/errors"
)

var (
	ErrMissingToken   = errors.New("token not provided")
	ErrMissingSubject = errors.New("token has no subject")
	ErrNoVerifyKey    = errors.New("no key configured for token algorithm")
)

// Verifier turns a bearer token into a verified identity.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// TokenVerifier accepts HS256 tokens signed with a shared secret and asymmetric tokens whose
// keys are published at a JWKS endpoint.
type TokenVerifier struct {
	secret []byte
	jwks   *keyfunc.JWKS
	parser *jwt.Parser
}

func NewTokenVerifier(secret, jwksURL string) (*TokenVerifier, error) {
	if secret == "" && jwksURL == "" {
		return nil, errors.New("either JWT_SECRET or JWKS_URL is required")
	}
	v := &TokenVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"})),
	}
	if jwksURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to load JWKS")
		}
		v.jwks = jwks
	}
	return v, nil
}

func (v *TokenVerifier) Verify(tokenStr string) (*Identity, error) {
	if tokenStr == "" {
		return nil, ErrMissingToken
	}
	token, err := v.parser.ParseWithClaims(tokenStr, &Claims{}, v.keyFor)
	if err != nil {
		return nil, errors.Wrap(err, "token validation failed")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

func (v *TokenVerifier) keyFor(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if len(v.secret) == 0 {
			return nil, ErrNoVerifyKey
		}
		return v.secret, nil
	}
	if v.jwks == nil {
		return nil, ErrNoVerifyKey
	}
	return v.jwks.Keyfunc(token)
}

// Close stops the JWKS refresh goroutine.
func (v *TokenVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// IssueToken signs an HS256 token for id. Used by local tooling and tests.
func IssueToken(secret string, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// TokenFromRequest reads a bearer token from the Authorization header, then the
// access_token cookie, then (when allowQuery is set) the token query parameter.
func TokenFromRequest(r *http.Request, allowQuery bool) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if allowQuery {
		return r.URL.Query().Get("token")
	}
	return ""
}

// Pagination reads page and size query parameters, applying defaultSize when size is absent.
// Malformed numbers are passed through as zero so validation rejects them.
func Pagination(c *gin.Context, defaultSize int) models.Pagination {
	page := models.Pagination{Page: 1, Size: defaultSize}
	if raw := c.Query("page"); raw != "" {
		page.Page = atoiOrZero(raw)
	}
	if raw := c.Query("size"); raw != "" {
		page.Size = atoiOrZero(raw)
	} else if raw := c.Query("limit"); raw != "" {
		page.Size = atoiOrZero(raw)
	}
	return page
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// RespondError writes caller-facing errors in the ApiResponse envelope and hands anything
// else to the error middleware as a 500.
func RespondError(c *gin.Context, err error) {
	if appErr, ok := models.AsAppError(err); ok {
		c.JSON(appErr.HTTPCode(), models.AppErrorResponse(appErr))
		return
	}
	_ = c.Error(err)
}
