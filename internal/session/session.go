// Package session resolves who a request acts for: a signed-in shopper from
// a bearer token, or otherwise a guest session id carried in a header.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
	"github.com/dwikikusuma/storefront/pkg/httperr"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	GuestHeader = "X-Guest-Session"

	ownerKey = "cart_owner"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 shopper tokens.
type Tokens struct {
	secret []byte
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

func (t *Tokens) Issue(userID string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse returns the shopper id carried by a valid token.
func (t *Tokens) Parse(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || strings.TrimSpace(claims.UserID) == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// Middleware stores the request's cart owner in the gin context. A request
// with a bearer token must present a valid one; anything else is a guest,
// and guests without a usable session id get a fresh one in the response.
func Middleware(tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearer(c.GetHeader("Authorization")); ok {
			userID, err := tokens.Parse(raw)
			if err != nil {
				httperr.Abort(c, status.Error(codes.Unauthenticated, err.Error()))
				return
			}
			c.Set("user_id", userID)
			c.Set(ownerKey, domain.Shopper(userID))
			c.Next()
			return
		}

		sid := strings.TrimSpace(c.GetHeader(GuestHeader))
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
		}
		c.Header(GuestHeader, sid)
		c.Set(ownerKey, domain.Guest(sid))
		c.Next()
	}
}

// OwnerFrom returns the owner the middleware resolved for c.
func OwnerFrom(c *gin.Context) (domain.Owner, bool) {
	v, ok := c.Get(ownerKey)
	if !ok {
		return domain.Owner{}, false
	}
	owner, ok := v.(domain.Owner)
	return owner, ok
}

func bearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
