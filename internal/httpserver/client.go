// internal/httpserver/client.go
//
// Anonymous client identity.
//   - Each browser gets a random client id (UUID) on its first request.
//   - The id travels as the subject of an HS256 JWT, in an HttpOnly cookie or
//     an "Authorization: Bearer" header.
//   - A missing, expired, or tampered token is replaced by a fresh identity.
//   - The id keys the client's shell in the store.

package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/imparo/internal/shell"
)

const clientCookieName = "imparo_client"

// ctxClientKey is the context key type for the client id.
type ctxClientKey struct{}

// withClient resolves (or mints) the client id and stores it in the request context.
func (s *Server) withClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.parseClientToken(bearerOrCookie(r))
		if !ok {
			id = uuid.NewString()
			tok, exp, err := s.signClientToken(id)
			if err != nil {
				log.Error().Err(err).Msg("sign client token")
				http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
				return
			}
			s.setClientCookie(w, tok, exp)
			log.Debug().Str("client", id).Msg("new client")
		}
		ctx := context.WithValue(r.Context(), ctxClientKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientID returns the id installed by withClient.
func clientID(r *http.Request) string {
	id, _ := r.Context().Value(ctxClientKey{}).(string)
	return id
}

// shellFor returns the caller's shell, creating it on first use.
func (s *Server) shellFor(r *http.Request) *shell.Shell {
	return s.store.GetOrCreate(r.Context(), clientID(r), s.opts.NewShell)
}

// signClientToken creates an HS256 JWT whose subject is the client id.
func (s *Server) signClientToken(id string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.opts.SessionTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString([]byte(s.opts.SessionSecret))
	return ss, exp, err
}

// parseClientToken validates tok and returns its client id.
func (s *Server) parseClientToken(tok string) (string, bool) {
	if tok == "" {
		return "", false
	}
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.SessionSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", false
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", false
	}
	return claims.Subject, true
}

// setClientCookie writes the client cookie with appropriate security attributes.
func (s *Server) setClientCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.opts.Secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a token from the Authorization header or the client cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(clientCookieName); err == nil {
		return c.Value
	}
	return ""
}
