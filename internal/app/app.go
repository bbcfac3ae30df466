package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/reelshare/reelshare/internal/config"
	"github.com/reelshare/reelshare/internal/db"
	"github.com/reelshare/reelshare/internal/repository"
	"github.com/reelshare/reelshare/internal/service"
	"github.com/reelshare/reelshare/internal/storage"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	AuthService    *service.AuthService
	UserService    *service.UserService
	EmailService   *service.EmailService
	FileService    *service.FileService
	FilmService    *service.FilmService
	CommentService *service.CommentService
	RatingService  *service.RatingService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	sessionRepository := repository.NewSessionRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	resetRepository := repository.NewResetRepository(database)
	fileRepository := repository.NewFileRepository(database)
	filmRepository := repository.NewFilmRepository(database)
	commentRepository := repository.NewCommentRepository(database)
	ratingRepository := repository.NewRatingRepository(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.FrontendURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(fileRepository, fileStorage)
	authService := service.NewAuthService(
		userRepository,
		sessionRepository,
		tokenRepository,
		resetRepository,
		emailService,
		service.AuthConfig{
			JWTSecret:                cfg.JWTSecret,
			AccessTokenExpiry:        cfg.AccessTokenExpiry,
			RefreshTokenExpiry:       cfg.RefreshTokenExpiry,
			TokenEmailVerifyExpiry:   cfg.TokenEmailVerifyExpiry,
			TokenPasswordResetExpiry: cfg.TokenPasswordResetExpiry,
			MaxFailedLogins:          cfg.MaxFailedLogins,
			LockoutDuration:          cfg.LockoutDuration,
		},
	)
	userService := service.NewUserService(userRepository, sessionRepository, fileService)
	filmService := service.NewFilmService(filmRepository, userRepository, fileService, emailService)
	commentService := service.NewCommentService(commentRepository, filmRepository)
	ratingService := service.NewRatingService(ratingRepository, filmRepository)

	return &App{
		Cfg:            cfg,
		DB:             database,
		AuthService:    authService,
		UserService:    userService,
		EmailService:   emailService,
		FileService:    fileService,
		FilmService:    filmService,
		CommentService: commentService,
		RatingService:  ratingService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
