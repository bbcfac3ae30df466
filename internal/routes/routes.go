package routes

import (
	"net/http"

	"github.com/reelshare/reelshare/internal/app"
	"github.com/reelshare/reelshare/internal/handler"
	"github.com/reelshare/reelshare/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	account := handler.NewAccountHandler(app.AuthService, app.UserService, app.FileService)
	film := handler.NewFilmHandler(app.FilmService)
	comment := handler.NewCommentHandler(app.CommentService)
	rating := handler.NewRatingHandler(app.RatingService)
	admin := handler.NewAdminHandler(app.UserService, app.FilmService, app.CommentService)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /api/healthz", health.Healthz)

	// Auth - credential endpoints are rate limited per IP
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /api/auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/refresh", auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("GET /api/auth/verify-email/{token}", auth.VerifyEmail)
	mux.HandleFunc("POST /api/auth/resend-verification", rateLimiter(auth.ResendVerification))
	mux.HandleFunc("POST /api/auth/forgot-password", rateLimiter(auth.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", rateLimiter(auth.ResetPassword))

	// OAuth
	mux.HandleFunc("GET /api/auth/google", auth.GoogleAuth)
	mux.HandleFunc("GET /api/auth/google/callback", auth.GoogleCallback)
	mux.HandleFunc("GET /api/auth/github", auth.GitHubAuth)
	mux.HandleFunc("GET /api/auth/github/callback", auth.GitHubCallback)

	// Catalog - approved films are public; Get applies visibility rules
	mux.HandleFunc("GET /api/films", film.List)
	mux.HandleFunc("GET /api/films/{id}", film.Get)
	mux.HandleFunc("POST /api/films/{id}/views", film.View)
	mux.HandleFunc("GET /api/films/{id}/comments", comment.ListByFilm)

	// ============================================================================
	// AUTHENTICATED ROUTES
	// ============================================================================

	// Account
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(account.Me))
	mux.HandleFunc("PATCH /api/me", middleware.RequireAuth(account.UpdateMe))
	mux.HandleFunc("POST /api/me/avatar", middleware.RequireAuth(account.UploadAvatar))
	mux.HandleFunc("DELETE /api/me/avatar", middleware.RequireAuth(account.DeleteAvatar))
	mux.HandleFunc("PUT /api/me/password", middleware.RequireAuth(account.ChangePassword))
	mux.HandleFunc("GET /api/me/sessions", middleware.RequireAuth(account.Sessions))
	mux.HandleFunc("DELETE /api/me/sessions/{id}", middleware.RequireAuth(account.RevokeSession))
	mux.HandleFunc("DELETE /api/me/sessions", middleware.RequireAuth(account.RevokeAllSessions))
	mux.HandleFunc("DELETE /api/me", middleware.RequireAuth(account.DeleteAccount))
	mux.HandleFunc("GET /api/me/films", middleware.RequireAuth(film.Mine))

	// Films
	mux.HandleFunc("POST /api/films", middleware.RequireAuth(film.Create))
	mux.HandleFunc("PATCH /api/films/{id}", middleware.RequireAuth(film.Update))
	mux.HandleFunc("DELETE /api/films/{id}", middleware.RequireAuth(film.Delete))

	// Comments
	mux.HandleFunc("POST /api/films/{id}/comments", middleware.RequireAuth(comment.Create))
	mux.HandleFunc("PATCH /api/comments/{id}", middleware.RequireAuth(comment.Update))
	mux.HandleFunc("DELETE /api/comments/{id}", middleware.RequireAuth(comment.Delete))

	// Ratings
	mux.HandleFunc("PUT /api/films/{id}/rating", middleware.RequireAuth(rating.Rate))
	mux.HandleFunc("GET /api/films/{id}/rating", middleware.RequireAuth(rating.Mine))
	mux.HandleFunc("DELETE /api/films/{id}/rating", middleware.RequireAuth(rating.Remove))

	// ============================================================================
	// ADMIN ROUTES
	// ============================================================================

	mux.HandleFunc("GET /api/admin/stats", middleware.RequireAdmin(admin.Stats))
	mux.HandleFunc("GET /api/admin/films", middleware.RequireAdmin(admin.Queue))
	mux.HandleFunc("POST /api/admin/films/{id}/approve", middleware.RequireAdmin(admin.ApproveFilm))
	mux.HandleFunc("POST /api/admin/films/{id}/reject", middleware.RequireAdmin(admin.RejectFilm))
	mux.HandleFunc("GET /api/admin/users", middleware.RequireAdmin(admin.Users))
	mux.HandleFunc("PATCH /api/admin/users/{id}/role", middleware.RequireAdmin(admin.SetUserRole))
	mux.HandleFunc("POST /api/admin/users/{id}/deactivate", middleware.RequireAdmin(admin.DeactivateUser))
	mux.HandleFunc("POST /api/admin/users/{id}/reactivate", middleware.RequireAdmin(admin.ReactivateUser))
	mux.HandleFunc("DELETE /api/admin/users/{id}", middleware.RequireAdmin(admin.DeleteUser))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg),
		middleware.RequestLogging,
		middleware.SecureHeaders,
		middleware.CORS(app.Cfg),
		middleware.AuthMiddleware(app.AuthService, app.UserService),
	)

	return handler
}
