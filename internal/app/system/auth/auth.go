// Package auth resolves the acting principal for a request. The identity
// collaborator either signs an HS256 bearer token or sets a session cookie
// with the shared session key; this package only reads them.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/tenderhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	DefaultSessionName = "tenderhub-session"

	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
	userRole  = "user_role"
)

// ErrInvalidToken is returned for bearer tokens that fail verification.
var ErrInvalidToken = errors.New("invalid bearer token")

// Claims is the bearer token payload issued by the identity service.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type ctxKey string

const principalKey ctxKey = "principal"

// Authenticator reads principals from bearer tokens and session cookies.
type Authenticator struct {
	store       *sessions.CookieStore
	sessionName string
	jwtSecret   []byte
	log         *zap.Logger
}

// NewAuthenticator builds an Authenticator. Either sessionKey or jwtSecret
// may be empty to disable that source, but not both.
func NewAuthenticator(sessionKey, sessionName, jwtSecret string, logger *zap.Logger) (*Authenticator, error) {
	if sessionKey == "" && jwtSecret == "" {
		return nil, fmt.Errorf("auth: no session key or jwt secret configured")
	}
	a := &Authenticator{sessionName: sessionName, log: logger}
	if a.sessionName == "" {
		a.sessionName = DefaultSessionName
	}
	if sessionKey != "" {
		if len(sessionKey) < 32 {
			logger.Warn("session key is short; 32+ chars recommended",
				zap.Int("length", len(sessionKey)))
		}
		a.store = sessions.NewCookieStore([]byte(sessionKey))
		a.store.Options = &sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode}
	}
	if jwtSecret != "" {
		a.jwtSecret = []byte(jwtSecret)
	}
	return a, nil
}

// SessionStore exposes the cookie store (nil when sessions are disabled).
func (a *Authenticator) SessionStore() *sessions.CookieStore { return a.store }

// SessionName is the cookie name sessions are read from.
func (a *Authenticator) SessionName() string { return a.sessionName }

// CurrentPrincipal returns the principal in context and whether one was found.
func CurrentPrincipal(r *http.Request) (models.Principal, bool) {
	p, ok := r.Context().Value(principalKey).(models.Principal)
	return p, ok && p.Authenticated()
}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// LoadPrincipal injects the principal into the request context. A bearer
// token takes precedence over the session cookie; an invalid token is
// treated as no principal.
func (a *Authenticator) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, ok := bearerToken(r); ok {
			p, err := a.ParseToken(tok)
			if err != nil {
				a.log.Debug("rejected bearer token", zap.Error(err))
			} else {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
			return
		}

		if a.store != nil {
			sess, _ := a.store.Get(r, a.sessionName)
			if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
				p := models.Principal{
					ID:   getString(sess, userIDKey),
					Role: getString(sess, userRole),
					Name: getString(sess, userName),
				}
				if p.Authenticated() {
					r = r.WithContext(WithPrincipal(r.Context(), p))
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ParseToken verifies an HS256 token and returns its principal.
func (a *Authenticator) ParseToken(raw string) (models.Principal, error) {
	if len(a.jwtSecret) == 0 {
		return models.Principal{}, fmt.Errorf("%w: bearer tokens are not enabled", ErrInvalidToken)
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	p := models.Principal{ID: strings.TrimSpace(claims.Subject), Role: claims.Role, Name: claims.Name}
	if !p.Authenticated() {
		return models.Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if p.Role == "" {
		p.Role = models.RoleUser
	}
	return p, nil
}

// RequireSignedIn answers 401 when no principal is in context.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentPrincipal(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// helpers

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
