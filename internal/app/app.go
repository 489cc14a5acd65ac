package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-market/internal/config"
	"campus-market/internal/database"
	"campus-market/internal/handler"
	"campus-market/internal/middleware"
	"campus-market/internal/observability"
	"campus-market/internal/repository"
	"campus-market/internal/router"
	"campus-market/internal/service"
)

type App struct {
	server       *http.Server
	db           *database.DB
	tokens       *repository.TokenRepository
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool, cfg.RefreshSessionCap)
	itemRepo := repository.NewItemRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	wishlistRepo := repository.NewWishlistRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	slog.Info("database ready")

	tokenService := service.NewTokenService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := service.NewAuthService(userRepo, tokenRepo, tokenService)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handler.NewAuthHandler(authService, handler.CookieSettings{
		Domain: cfg.CookieDomain,
		Secure: cfg.IsProduction(),
		TTL:    cfg.JWTRefreshTTL,
	})

	itemService := service.NewItemService(itemRepo, categoryRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	cartService := service.NewCartService(cartRepo, itemRepo)
	wishlistService := service.NewWishlistService(wishlistRepo, itemRepo)
	reviewService := service.NewReviewService(reviewRepo, itemRepo)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:     authHandler,
		Item:     handler.NewItemHandler(itemService),
		Category: handler.NewCategoryHandler(categoryService),
		Cart:     handler.NewCartHandler(cartService),
		Wishlist: handler.NewWishlistHandler(wishlistService),
		Review:   handler.NewReviewHandler(reviewService),
		User:     handler.NewUserHandler(userRepo),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		tokens: tokenRepo,
		cleanupFuncs: []func(){
			func() { db.Close() },
			observability.FlushSentry,
		},
	}, nil
}

func (a *App) Run() error {
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go a.sweepExpiredTokens(sweeperCtx)

	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}

// sweepExpiredTokens drops expired refresh-token rows hourly. Expiry is
// also enforced at consume time, so this only keeps the table small.
func (a *App) sweepExpiredTokens(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.tokens.CleanExpired(ctx)
			if err != nil {
				slog.Warn("expired token sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired refresh tokens removed", "count", removed)
			}
		}
	}
}
