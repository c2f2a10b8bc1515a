// Package session issues and validates signed session tokens. A token
// carries only the user id; everything else lives in the store.
package session

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName is the fallback token carrier for browser flows.
	CookieName = "kw_session"

	tokenTTL = 30 * 24 * time.Hour
)

// Issue signs a session token for a user id.
func Issue(secret, userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// UserIDFromRequest extracts and validates the session from request
// headers: Authorization Bearer first, then the session cookie. Returns
// an empty string for anything invalid, expired, or absent.
func UserIDFromRequest(r *http.Request, secret string) string {
	raw := ""
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		raw = strings.TrimPrefix(auth, "Bearer ")
	} else if cookie, err := r.Cookie(CookieName); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		return ""
	}
	return userIDFromToken(raw, secret)
}

func userIDFromToken(raw, secret string) string {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	userID, _ := claims["user_id"].(string)
	return userID
}
