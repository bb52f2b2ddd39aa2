package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/homeride/backend/internal/api/dto"
)

const callerEmailKey = "caller_email"

var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier resolves a bearer token to the caller's email.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// JWTVerifier checks HS256 tokens whose subject is the employee email.
type JWTVerifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTVerifier(secret, issuer string, ttl time.Duration) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

func (v *JWTVerifier) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return "", fmt.Errorf("%w: unexpected issuer", ErrInvalidToken)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Sign issues a token for email. The login service shares the secret, so
// this is used by tooling and tests.
func (v *JWTVerifier) Sign(email string) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Auth rejects requests without a valid token. Browsers cannot set headers on
// WebSocket upgrades, so a "token" query parameter is accepted as well.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "Missing bearer token"})
			return
		}

		email, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or expired token"})
			return
		}

		c.Set(callerEmailKey, email)
		c.Next()
	}
}

// CallerEmail returns the authenticated email, or "" outside Auth.
func CallerEmail(c *gin.Context) string {
	return c.GetString(callerEmailKey)
}

// SetCallerEmail is used by tests that bypass Auth.
func SetCallerEmail(c *gin.Context, email string) {
	c.Set(callerEmailKey, email)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
