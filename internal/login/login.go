// Package login implements first-party authentication: password sign-up and
// sign-in, passwordless magic links, and the server-side session lifecycle.
// The browser holds only an opaque session ID cookie; everything else lives
// in the session store.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/choppr/choppr/internal/auth"
	"github.com/choppr/choppr/internal/httpmeta"
	"github.com/choppr/choppr/internal/models"
	"github.com/choppr/choppr/internal/store"
	"github.com/choppr/choppr/internal/telemetry"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
)

type contextKey string

const sessionContextKey contextKey = "session"

const sessionCookieName = "_session"

// Stores groups the stores the login manager needs.
type Stores struct {
	Users    store.UserStore
	Sessions store.SessionStore
}

// Manager owns session issuance and the auth HTTP handlers.
type Manager struct {
	stores     Stores
	magic      *auth.MagicLink
	sessionTTL time.Duration
	baseURL    string
}

// NewManager creates a login manager.
func NewManager(stores Stores, magic *auth.MagicLink, sessionTTL time.Duration, baseURL string) (*Manager, error) {
	if stores.Users == nil || stores.Sessions == nil {
		return nil, fmt.Errorf("user and session stores are required")
	}
	if magic == nil {
		return nil, fmt.Errorf("magic link signer is required")
	}
	if sessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}

	return &Manager{
		stores:     stores,
		magic:      magic,
		sessionTTL: sessionTTL,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignupHandler creates a user from email+password and signs them in.
func (m *Manager) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
			return
		}
		log.Error().Err(err).Msg("Failed to hash password")
		writeError(w, http.StatusInternalServerError, "sign-up failed")
		return
	}

	now := time.Now()
	user := &models.User{
		UserID:       uuid.Must(uuid.NewV7()),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.stores.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			writeError(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		log.Error().Err(err).Msg("Failed to create user")
		writeError(w, http.StatusInternalServerError, "sign-up failed")
		return
	}

	telemetry.GetMetrics().SignupsTotal.Add(r.Context(), 1)
	log.Info().Str("user_id", user.UserID.String()).Msg("User signed up")

	m.issueSession(w, r, user, http.StatusCreated)
}

// LoginHandler signs a user in with email+password.
// Bad email and bad password produce the same response.
func (m *Manager) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := m.stores.Users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Error().Err(err).Msg("Failed to look up user")
		}
		telemetry.GetMetrics().LoginFailuresTotal.Add(r.Context(), 1)
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		telemetry.GetMetrics().LoginFailuresTotal.Add(r.Context(), 1)
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	telemetry.GetMetrics().LoginsTotal.Add(r.Context(), 1)
	m.issueSession(w, r, user, http.StatusOK)
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

// MagicLinkHandler issues a passwordless sign-in link for the given email.
// The response is the same whether or not the account exists. Mail transport
// is out of scope; the link is logged for delivery by the operator's mailer.
func (m *Manager) MagicLinkHandler(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	token, err := m.magic.Issue(email)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue magic link")
		writeError(w, http.StatusInternalServerError, "failed to issue magic link")
		return
	}

	telemetry.GetMetrics().MagicLinksIssued.Add(r.Context(), 1)
	log.Info().
		Str("email", email).
		Str("link", m.baseURL+"/auth/magic-link/verify?token="+token).
		Msg("Magic link issued")

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// MagicLinkVerifyHandler redeems a magic link token for a session, creating
// the user on first sign-in, then redirects into the app.
func (m *Manager) MagicLinkVerifyHandler(w http.ResponseWriter, r *http.Request) {
	email, err := m.magic.Verify(r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired magic link")
		return
	}

	user, err := m.stores.Users.GetByEmail(r.Context(), email)
	if errors.Is(err, store.ErrUserNotFound) {
		now := time.Now()
		user = &models.User{
			UserID:    uuid.Must(uuid.NewV7()),
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if createErr := m.stores.Users.Create(r.Context(), user); createErr != nil {
			// lost a race with another redemption of the same link
			user, err = m.stores.Users.GetByEmail(r.Context(), email)
		} else {
			telemetry.GetMetrics().SignupsTotal.Add(r.Context(), 1)
			err = nil
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve magic link user")
		writeError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}

	session, err := m.createSession(r, user)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		writeError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}

	m.setSessionCookie(w, session)
	telemetry.GetMetrics().LoginsTotal.Add(r.Context(), 1)
	http.Redirect(w, r, "/onboarding", http.StatusFound)
}

// SessionHandler returns the current session's user.
func (m *Manager) SessionHandler(w http.ResponseWriter, r *http.Request) {
	session, err := m.GetSession(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	user, err := m.stores.Users.Get(r.Context(), session.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load session user")
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:    user.UserID.String(),
		Email:     user.Email,
		Name:      user.Name,
		ExpiresAt: session.ExpiresAt,
	})
}

// LogoutHandler deletes the server-side session and clears the cookie.
func (m *Manager) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if session, err := m.GetSession(r); err == nil {
		if err := m.stores.Sessions.Delete(r.Context(), session.SessionID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
			log.Error().Err(err).Msg("Failed to delete session")
		}
	}

	m.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// LoginPageHandler is the auth entry point: already-authenticated visitors
// are sent to onboarding, everyone else gets the login page placeholder.
func (m *Manager) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := m.GetSession(r); err == nil {
		http.Redirect(w, r, "/onboarding", http.StatusFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sign_in_required"})
}

// GetSession extracts and validates the session from a request.
func (m *Manager) GetSession(r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, ErrInvalidSession
	}

	sessionID, err := uuid.Parse(cookie.Value)
	if err != nil {
		log.Debug().Msg("Malformed session cookie")
		return nil, ErrInvalidSession
	}

	session, err := m.stores.Sessions.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionExpired) {
			return nil, ErrExpiredSession
		}
		return nil, ErrInvalidSession
	}

	return session, nil
}

// RequireAuth is a middleware that protects page routes by requiring a valid
// session. Invalid or expired sessions redirect to redirectURL with an
// error_code query parameter. On success the session is added to the request
// context.
func (m *Manager) RequireAuth(redirectURL string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session, err := m.GetSession(r)
			if err != nil {
				errorCode := "invalid"
				if errors.Is(err, ErrExpiredSession) {
					errorCode = "expired"
				}
				log.Debug().Str("path", r.URL.Path).Str("error_code", errorCode).Msg("Session rejected, redirecting to login")
				http.Redirect(w, r, redirectURL+"?error_code="+errorCode, http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireSession is the API variant of RequireAuth: it responds 401 JSON
// instead of redirecting.
func (m *Manager) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.GetSession(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromContext extracts the session from the request context.
// This should be called from handlers protected by RequireAuth or RequireSession.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*models.Session)
	return session, ok
}

func (m *Manager) issueSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	session, err := m.createSession(r, user)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	m.setSessionCookie(w, session)
	writeJSON(w, status, sessionResponse{
		UserID:    user.UserID.String(),
		Email:     user.Email,
		Name:      user.Name,
		ExpiresAt: session.ExpiresAt,
	})
}

func (m *Manager) createSession(r *http.Request, user *models.User) (*models.Session, error) {
	now := time.Now()
	session := &models.Session{
		SessionID:  uuid.Must(uuid.NewV7()),
		UserID:     user.UserID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.sessionTTL),
		LastUsedAt: now,
		UserAgent:  r.UserAgent(),
		IPAddress:  httpmeta.ClientIPFromContext(r.Context()),
	}

	if err := m.stores.Sessions.Create(r.Context(), session); err != nil {
		return nil, err
	}

	if err := m.stores.Users.RecordLogin(r.Context(), user.UserID); err != nil {
		log.Warn().Err(err).Msg("Failed to record login time")
	}

	return session, nil
}

func (m *Manager) setSessionCookie(w http.ResponseWriter, session *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.SessionID.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
	})
}

func (m *Manager) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
