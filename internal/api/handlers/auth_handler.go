package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nkallio/cardwall/internal/auth"
	"github.com/nkallio/cardwall/internal/services"
)

const refreshCookieName = "refreshToken"

// AuthHandler handles registration, login, token refresh, and logout.
type AuthHandler struct {
	users         services.UserServiceProvider
	tokens        *auth.TokenService
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. secureCookies should be true in
// production so the refresh cookie is only sent over TLS.
func NewAuthHandler(users services.UserServiceProvider, tokens *auth.TokenService, secureCookies bool) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, secureCookies: secureCookies}
}

// CredentialsPayload defines the structure for register and login requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "Please fill in all fields!"})
		return
	}

	if payload.Username == "" || payload.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "Please fill in all fields!"})
		return
	}

	_, err := h.users.Register(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "Username is already taken. Please log in!"})
			return
		}
		log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "error": "Error registering user"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "message": "User created!"})
}

// Login handles user authentication. The access token travels in the JSON
// body; the refresh token only in an HTTP-only, same-site-strict cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "Please enter username and password!"})
		return
	}

	if payload.Username == "" || payload.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "Please enter username and password!"})
		return
	}

	user, err := h.users.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "Incorrect username or password!"})
			return
		}
		log.Error().Err(err).Str("username", payload.Username).Msg("Failed to log in user")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "error": "Error logging in"})
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to sign access token")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "error": "Error logging in"})
		return
	}

	refreshToken, err := h.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to sign refresh token")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "error": "Error logging in"})
		return
	}

	http.SetCookie(w, h.refreshCookie(refreshToken, time.Now().Add(auth.RefreshTokenTTL)))
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "accessToken": accessToken})
}

// Refresh mints a new access token from the refresh cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"ok": false, "error": "Invalid refresh token"})
		return
	}

	accessToken, err := h.tokens.Refresh(cookie.Value)
	if err != nil {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"ok": false, "error": "Invalid refresh token"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "accessToken": accessToken})
}

// Logout clears the refresh cookie. Tokens are stateless, so nothing is
// revoked server-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	expired := h.refreshCookie("", time.Unix(0, 0))
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "message": "Logged out"})
}

// UserArea is a lightweight login check; reaching it at all means the access
// token was valid.
func (h *AuthHandler) UserArea(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the user area"})
}

// Profile returns the authenticated user without the password hash.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "Could not retrieve user from token")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		serviceError(w, err, "User not found in the database", "Error fetching profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) refreshCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	}
}
