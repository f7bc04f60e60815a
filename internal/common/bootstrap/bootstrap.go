package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/AlibekovAA/social-stream/backend/internal/auth/http"
	authrepo "github.com/AlibekovAA/social-stream/backend/internal/auth/repository"
	authservice "github.com/AlibekovAA/social-stream/backend/internal/auth/service"
	"github.com/AlibekovAA/social-stream/backend/internal/common/clock"
	"github.com/AlibekovAA/social-stream/backend/internal/common/config"
	"github.com/AlibekovAA/social-stream/backend/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/social-stream/backend/internal/common/crypto"
	"github.com/AlibekovAA/social-stream/backend/internal/common/db"
	commonhttp "github.com/AlibekovAA/social-stream/backend/internal/common/http"
	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
	feedrepo "github.com/AlibekovAA/social-stream/backend/internal/feed/repository"
	feedservice "github.com/AlibekovAA/social-stream/backend/internal/feed/service"
	graphrepo "github.com/AlibekovAA/social-stream/backend/internal/graph/repository"
	graphservice "github.com/AlibekovAA/social-stream/backend/internal/graph/service"
	postrepo "github.com/AlibekovAA/social-stream/backend/internal/post/repository"
	postservice "github.com/AlibekovAA/social-stream/backend/internal/post/service"
	"github.com/AlibekovAA/social-stream/backend/internal/session"
	socialhttp "github.com/AlibekovAA/social-stream/backend/internal/social/http"
	"github.com/AlibekovAA/social-stream/backend/internal/storage/memory"
	userrepo "github.com/AlibekovAA/social-stream/backend/internal/user/repository"
)

type Repositories struct {
	Users         userrepo.Repository
	Accounts      authrepo.AccountTxManager
	Relationships graphrepo.Repository
	Posts         postrepo.Repository
	Feed          feedrepo.Repository
	RefreshTokens authrepo.RefreshTokenRepository
	RevokedTokens authrepo.RevokedTokenRepository
}

type Services struct {
	Auth  *authservice.AuthService
	Graph *graphservice.GraphService
	Posts *postservice.PostService
	Feed  *feedservice.FeedService
}

type App struct {
	Log      *logger.Logger
	Config   config.SocialConfig
	Pool     *pgxpool.Pool
	Repos    Repositories
	Services Services
	Handler  http.Handler
}

func NewSocialApp(ctx context.Context) (*App, error) {
	log, err := initializeLogger("social")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadSocialConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	app := &App{Log: log, Config: cfg}

	var ping commonhttp.Pinger
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		app.Repos = MemoryRepositories(memory.NewStore(clock.NewRealClock()))
	default:
		pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)
		app.Pool = pool
		app.Repos = PgRepositories(pool)
		ping = pool.Ping
	}

	app.Services = NewServices(app.Repos, cfg, log, clock.NewRealClock(), commoncrypto.NewBcryptHasher())

	if err := app.Services.Auth.SeedAdmin(ctx, cfg.Admin); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}

	app.Handler = NewHandler(app.Services, app.Repos, cfg, log, ping)
	return app, nil
}

func PgRepositories(pool *pgxpool.Pool) Repositories {
	txManager := db.NewTxManager(pool)
	return Repositories{
		Users:         userrepo.NewPgRepository(pool),
		Accounts:      authrepo.NewPgAccountTxManager(txManager),
		Relationships: graphrepo.NewPgRepository(pool),
		Posts:         postrepo.NewPgRepository(pool),
		Feed:          feedrepo.NewPgRepository(txManager),
		RefreshTokens: authrepo.NewPgRefreshTokenRepository(pool),
		RevokedTokens: authrepo.NewPgRevokedTokenRepository(pool),
	}
}

func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Users:         store.Users(),
		Accounts:      store.Accounts(),
		Relationships: store.Relationships(),
		Posts:         store.Posts(),
		Feed:          store.Feed(),
		RefreshTokens: store.RefreshTokens(),
		RevokedTokens: store.RevokedTokens(),
	}
}

func NewServices(repos Repositories, cfg config.SocialConfig, log *logger.Logger, c clock.Clock, hasher commoncrypto.PasswordHasher) Services {
	idGenerator := commoncrypto.NewUUIDGenerator()

	return Services{
		Auth: authservice.NewAuthService(
			authservice.AuthServiceDeps{
				Repo:             repos.Users,
				RefreshTokenRepo: repos.RefreshTokens,
				RevokedTokenRepo: repos.RevokedTokens,
				Hasher:           commoncrypto.NewBcryptHasher(),
				IDGenerator:      idGenerator,
				Clock:            c,
				Log:              log,
			},
			authservice.AuthServiceConfig{
				JWTSecret:               cfg.JWTSecret,
				AccessTokenTTL:          cfg.AccessTokenTTL,
				RefreshTokenTTL:         cfg.RefreshTokenTTL,
				MaxRefreshTokens:        cfg.MaxRefreshTokensPerUser,
				CircuitBreakerThreshold: cfg.CircuitBreakerThreshold,
				CircuitBreakerTimeout:   cfg.CircuitBreakerTimeout,
				CircuitBreakerReset:     cfg.CircuitBreakerReset,
			},
		),
		Graph: graphservice.NewGraphService(graphservice.GraphServiceDeps{
			Relationships: repos.Relationships,
			Users:         repos.Users,
			Clock:         c,
			Logger:        log,
		}),
		Posts: postservice.NewPostService(postservice.PostServiceDeps{
			Posts:       repos.Posts,
			IDGenerator: idGenerator,
			Clock:       c,
			Logger:      log,
		}),
		Feed: feedservice.NewFeedService(feedservice.FeedServiceDeps{
			Feed:         repos.Feed,
			Posts:        repos.Posts,
			Users:        repos.Users,
			Logger:       log,
			DefaultLimit: cfg.StreamLimit,
		}),
	}
}

// NewHandler assembles every route behind the shared middleware stack.
func NewHandler(services Services, repos Repositories, cfg config.SocialConfig, log *logger.Logger, ping commonhttp.Pinger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log, ping))
	mux.Handle("/metrics", promhttp.Handler())

	authhttp.Register(mux, services.Auth, cfg.RequestTimeout, log)
	socialhttp.Register(mux, socialhttp.Deps{
		Auth:    services.Auth,
		Graph:   services.Graph,
		Posts:   services.Posts,
		Feed:    services.Feed,
		Timeout: cfg.RequestTimeout,
		Logger:  log,
	})

	resolver := session.NewResolver(session.ResolverDeps{
		Tokens:  services.Auth.TokenIssuer(),
		Revoked: repos.RevokedTokens,
		Users:   repos.Users,
		Logger:  log,
	})

	return commonhttp.BuildBaseHandler(log, session.Middleware(resolver)(mux))
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

func initializeLogger(serviceName string) (*logger.Logger, error) {
	return logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
}
