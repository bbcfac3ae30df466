package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/reelshare/reelshare/internal/config"
	"github.com/reelshare/reelshare/internal/ctxkeys"
	"github.com/reelshare/reelshare/internal/middleware"
	"github.com/reelshare/reelshare/internal/model"
	"github.com/reelshare/reelshare/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

type authHandler struct {
	authService       *service.AuthService
	cfg               *config.Config
	googleOAuthConfig *oauth2.Config
	githubOAuthConfig *oauth2.Config
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *authHandler {
	return &authHandler{
		authService: authService,
		cfg:         cfg,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.AppURL + "/api/auth/google/callback",
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		githubOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.AppURL + "/api/auth/github/callback",
			Scopes:       []string{"user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// authResponse is returned by login, refresh, and the OAuth flows.
type authResponse struct {
	User   model.PublicUser   `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		switch err {
		case service.ErrInvalidEmail, service.ErrEmailAlreadyExists:
			respondServiceError(w, err)
		default:
			respondValidationError(w, err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"user":    user.Public(),
		"message": "check your email to verify your account",
	})
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, pair, err := h.authService.Login(req.Email, req.Password, r.UserAgent(), middleware.GetClientIP(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: user.Public(), Tokens: pair})
}

func (h *authHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	user, pair, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: user.Public(), Tokens: pair})
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ctxkeys.SessionID(r.Context())
	if sessionID != "" {
		err := h.authService.Logout(sessionID)
		if err != nil {
			slog.Warn("logout failed", "error", err, "session_id", sessionID)
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *authHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	user, err := h.authService.VerifyEmail(token)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user":    user.Public(),
		"message": "email verified",
	})
}

func (h *authHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.authService.ResendEmailVerification(req.Email)
	if err != nil {
		slog.Warn("verification resend failed", "error", err, "email", req.Email)
	}

	// Always succeed to prevent email enumeration
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "if the account exists, a verification email was sent"})
}

func (h *authHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.authService.RequestPasswordReset(req.Email)
	if err != nil && err != service.ErrInvalidEmail {
		slog.Warn("password reset request failed", "error", err, "email", req.Email)
	}

	// Always succeed to prevent email enumeration
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "if the account exists, a reset email was sent"})
}

func (h *authHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.authService.ResetPassword(req.Token, req.Password)
	if err != nil {
		switch err {
		case service.ErrInvalidToken:
			respondServiceError(w, err)
		default:
			respondValidationError(w, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated, log in with your new password"})
}

// GoogleAuth redirects to the Google OAuth consent screen.
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	state := generateOAuthState()
	h.setStateCookie(w, state)

	url := h.googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback handles the OAuth callback from Google.
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code, ok := h.checkOAuthCallback(w, r)
	if !ok {
		return
	}

	token, err := h.googleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		h.redirectOAuthError(w, r)
		return
	}

	client := h.googleOAuthConfig.Client(context.Background(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		h.redirectOAuthError(w, r)
		return
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	err = json.NewDecoder(resp.Body).Decode(&userInfo)
	if err != nil {
		slog.Error("failed to decode google user info", "error", err)
		h.redirectOAuthError(w, r)
		return
	}

	h.finishOAuth(w, r, userInfo.Email, userInfo.Name, "google")
}

// GitHubAuth redirects to the GitHub OAuth consent screen.
func (h *authHandler) GitHubAuth(w http.ResponseWriter, r *http.Request) {
	state := generateOAuthState()
	h.setStateCookie(w, state)

	url := h.githubOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GitHubCallback handles the OAuth callback from GitHub.
func (h *authHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	code, ok := h.checkOAuthCallback(w, r)
	if !ok {
		return
	}

	token, err := h.githubOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		slog.Error("github oauth token exchange failed", "error", err)
		h.redirectOAuthError(w, r)
		return
	}

	client := h.githubOAuthConfig.Client(context.Background(), token)
	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		slog.Error("failed to get github user info", "error", err)
		h.redirectOAuthError(w, r)
		return
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	var userInfo struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	err = json.NewDecoder(resp.Body).Decode(&userInfo)
	if err != nil {
		slog.Error("failed to decode github user info", "error", err)
		h.redirectOAuthError(w, r)
		return
	}

	// GitHub may hide the email from the main response; fetch the
	// primary one from /user/emails
	if userInfo.Email == "" {
		emailResp, err := client.Get("https://api.github.com/user/emails")
		if err != nil {
			slog.Error("failed to get github user emails", "error", err)
			h.redirectOAuthError(w, r)
			return
		}
		defer func() {
			closeErr := emailResp.Body.Close()
			if closeErr != nil {
				slog.Error("failed to close email response body", "error", closeErr)
			}
		}()

		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		err = json.NewDecoder(emailResp.Body).Decode(&emails)
		if err != nil {
			slog.Error("failed to decode github emails", "error", err)
			h.redirectOAuthError(w, r)
			return
		}

		for _, e := range emails {
			if e.Primary {
				userInfo.Email = e.Email
				break
			}
		}
	}

	if userInfo.Email == "" {
		slog.Warn("github oauth: no email found")
		h.redirectOAuthError(w, r)
		return
	}

	h.finishOAuth(w, r, userInfo.Email, userInfo.Name, "github")
}

func (h *authHandler) setStateCookie(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(), // r.TLS is unreliable behind load balancers
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})
}

// checkOAuthCallback validates the CSRF state and returns the auth code.
func (h *authHandler) checkOAuthCallback(w http.ResponseWriter, r *http.Request) (string, bool) {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("oauth state validation failed", "error", err)
		h.redirectOAuthError(w, r)
		return "", false
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("oauth callback missing code")
		h.redirectOAuthError(w, r)
		return "", false
	}

	return code, true
}

// finishOAuth logs the user in and hands the token pair to the SPA via
// its callback route.
func (h *authHandler) finishOAuth(w http.ResponseWriter, r *http.Request, email, name, provider string) {
	user, pair, err := h.authService.OAuthLogin(email, name, provider, r.UserAgent(), middleware.GetClientIP(r))
	if err != nil {
		slog.Error("oauth authentication failed", "error", err, "email", email, "provider", provider)
		h.redirectOAuthError(w, r)
		return
	}

	q := url.Values{}
	q.Set("access_token", pair.AccessToken)
	q.Set("refresh_token", pair.RefreshToken)

	slog.Info("oauth login complete", "user_id", user.ID, "provider", provider)
	http.Redirect(w, r, h.cfg.FrontendURL+"/auth/callback?"+q.Encode(), http.StatusSeeOther)
}

func (h *authHandler) redirectOAuthError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.cfg.FrontendURL+"/auth/callback?error=oauth_failed", http.StatusSeeOther)
}

// generateOAuthState creates cryptographically secure random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
