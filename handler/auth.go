package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

// Claims is the identity carried by a bearer token. Only the user id is
// trusted; addresses and names are always re-read from storage.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

func claimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}

// SignToken issues an HS256 token. ttl <= 0 means no expiry.
func SignToken(secret []byte, userID int64, role string, ttl time.Duration) (string, error) {
	c := Claims{UserID: userID, Role: role}
	if ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

func (h *Handler) parseToken(r *http.Request) (*Claims, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, errors.New("missing bearer token")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (interface{}, error) {
		return h.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 {
		return nil, errors.New("token has no user_id")
	}
	return claims, nil
}

// authed rejects requests without a valid token and exposes the claims to next.
func (h *Handler) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.parseToken(r)
		if err != nil {
			writeErr(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
	}
}

func (h *Handler) admin(next http.HandlerFunc) http.HandlerFunc {
	return h.authed(func(w http.ResponseWriter, r *http.Request) {
		if c, _ := claimsFrom(r.Context()); c == nil || c.Role != RoleAdmin {
			writeErr(w, http.StatusForbidden, "admin only")
			return
		}
		next(w, r)
	})
}

func userID(r *http.Request) int64 {
	if c, ok := claimsFrom(r.Context()); ok {
		return c.UserID
	}
	return 0
}
