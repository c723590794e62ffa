package app

import (
	"context"
	"time"

	"course-matcher/internal/cache"
	"course-matcher/internal/common/logging"
	"course-matcher/internal/config"
	"course-matcher/internal/fetcher"
	"course-matcher/internal/matcher"
	"course-matcher/internal/oracle"
	"course-matcher/internal/ratelimit"
	"course-matcher/internal/redis"
	"course-matcher/internal/storage"

	// Match record backends register themselves with the storage registry
	_ "course-matcher/internal/storage/postgres"
	_ "course-matcher/internal/storage/sqlite"
)

// Version is reported by the health endpoint and the CLI
const Version = "1.0.0"

// CacheStore is a page cache that can report its own health
type CacheStore interface {
	cache.Store
	Health(ctx context.Context) error
}

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	RedisClient *redis.Client
	Cache       CacheStore
	Records     storage.Store
	Engine      *fetcher.Engine
	Oracle      *oracle.OpenAIClient
	Matcher     *matcher.Service
	Limiter     ratelimit.Limiter
	Logger      logging.Logger

	memoryFallback bool
	launcher       fetcher.Launcher
}

// Option adjusts how New builds the application
type Option func(*App)

// WithMemoryFallback uses the in-memory cache when Redis is configured but
// unreachable. One-shot CLI commands use it; the server does not.
func WithMemoryFallback() Option {
	return func(app *App) {
		app.memoryFallback = true
	}
}

// WithLauncher replaces the Chrome launcher, mainly for tests
func WithLauncher(launcher fetcher.Launcher) Option {
	return func(app *App) {
		app.launcher = launcher
	}
}

// New creates a new application instance with all dependencies. The browser
// is not started until the first fetch.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.Field{"component", "app"}),
	}
	for _, opt := range opts {
		opt(app)
	}

	// Initialize components in order of dependency
	if err := app.initializeCache(); err != nil {
		return nil, err
	}

	if err := app.initializeRecords(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeOracle(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeMatcher(); err != nil {
		app.Cleanup()
		return nil, err
	}

	app.initializeRateLimiter()

	return app, nil
}

func (app *App) initializeCache() error {
	if !app.Config.UsesRedis() {
		app.Cache = cache.NewMemoryStore(10 * time.Minute)
		app.Logger.Info("Cache: in-memory")
		return nil
	}

	client, err := redis.NewClient(&redis.Config{
		Address:  app.Config.RedisAddress,
		Password: app.Config.RedisPassword,
		DB:       app.Config.RedisDB,
		PoolSize: app.Config.RedisPoolSize,
	})
	if err != nil {
		if !app.memoryFallback {
			return err
		}
		app.Logger.Warn("Redis unavailable, falling back to in-memory cache",
			logging.Field{"address", app.Config.RedisAddress},
			logging.Field{"error", err.Error()},
		)
		app.Cache = cache.NewMemoryStore(10 * time.Minute)
		return nil
	}

	app.RedisClient = client
	app.Cache = cache.NewRedisStore(client, app.Config.CacheKeyPrefix)
	app.Logger.Info("Cache: Redis connected",
		logging.Field{"address", app.Config.RedisAddress},
		logging.Field{"db", app.Config.RedisDB},
	)
	return nil
}

func (app *App) initializeRecords() error {
	store, err := storage.NewStore(app.Config)
	if err != nil {
		return err
	}
	if store == nil {
		app.Logger.Info("Match records: disabled")
		return nil
	}

	app.Records = store
	app.Logger.Info("Match records: enabled", logging.Field{"type", app.Config.DatabaseType})
	return nil
}

func (app *App) initializeOracle() error {
	client, err := oracle.NewOpenAIClient(oracle.Config{
		APIKey:            app.Config.OpenAIAPIKey,
		BaseURL:           app.Config.OpenAIBaseURL,
		Model:             app.Config.OpenAIModel,
		AzureEndpoint:     app.Config.AzureOpenAIEndpoint,
		AzureAPIKey:       app.Config.AzureOpenAIKey,
		AzureAPIVersion:   app.Config.AzureOpenAIAPIVersion,
		RequestsPerSecond: app.Config.OracleRPS,
		BreakerEnabled:    app.Config.OracleBreakerEnabled,
		EstimateTokens:    app.Config.OracleEstimateTokens,
	}, app.Logger.WithFields(logging.Field{"component", "oracle"}))
	if err != nil {
		return err
	}

	app.Oracle = client
	return nil
}

func (app *App) initializeMatcher() error {
	normalizer, err := fetcher.NewNormalizer(app.Config.ContentFormat)
	if err != nil {
		return err
	}

	launcher := app.launcher
	if launcher == nil {
		launcher = &fetcher.ChromeLauncher{
			ExecPath:  app.Config.BrowserExecPath,
			NoSandbox: app.Config.BrowserNoSandbox,
			Logger:    app.Logger.WithFields(logging.Field{"component", "browser"}),
		}
	}
	app.Engine = fetcher.NewEngine(launcher,
		fetcher.WithMaxSessions(app.Config.BrowserMaxSessions),
		fetcher.WithLogger(app.Logger.WithFields(logging.Field{"component", "fetcher"})),
	)

	opts := []matcher.Option{
		matcher.WithNormalizer(normalizer),
		matcher.WithLogger(app.Logger.WithFields(logging.Field{"component", "matcher"})),
	}
	if app.Records != nil {
		opts = append(opts, matcher.WithRecords(app.Records))
	}
	if app.Config.PublishEvents && app.RedisClient != nil {
		opts = append(opts, matcher.WithEvents(app.RedisClient))
		app.Logger.Info("Events: publishing", logging.Field{"channel", matcher.ComparisonsChannel})
	}

	app.Matcher = matcher.NewService(app.Cache, app.Engine, app.Oracle, opts...)
	return nil
}

// initializeRateLimiter shares counters across instances through Redis when
// it is available.
func (app *App) initializeRateLimiter() {
	if !app.Config.RateLimitEnabled {
		app.Logger.Info("Rate limiting: disabled")
		return
	}

	if app.RedisClient != nil {
		app.Limiter = ratelimit.NewRedisLimiter(app.RedisClient)
		app.Logger.Info("Rate limiting: enabled", logging.Field{"backend", "redis"})
		return
	}

	app.Limiter = ratelimit.NewLocalLimiter()
	app.Logger.Info("Rate limiting: enabled", logging.Field{"backend", "local"})
}

// Cleanup releases all resources. The browser goes first so no render
// outlives the stores it writes to.
func (app *App) Cleanup() {
	if app.Engine != nil {
		if err := app.Engine.Close(); err != nil {
			app.Logger.Warn("Error closing browser", logging.Field{"error", err.Error()})
		}
	}
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Logger.Warn("Error closing Redis client", logging.Field{"error", err.Error()})
		}
	}
	if app.Records != nil {
		if err := app.Records.Close(); err != nil {
			app.Logger.Warn("Error closing match record store", logging.Field{"error", err.Error()})
		}
	}
}
