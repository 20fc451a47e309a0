package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/kgviz/svc-kg/internal/cache"
	"github.com/kgviz/svc-kg/internal/pgdirect"
	"github.com/kgviz/svc-kg/internal/rpc"
	mid "github.com/kgviz/svc-kg/internal/server/middleware"
	"github.com/kgviz/svc-kg/internal/storage"
	"github.com/kgviz/svc-kg/internal/util"
	"github.com/kgviz/svc-kg/pkg/logger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rpcFn := util.GetEnvString("SUPABASE_RPC_FN", "get_graph_membros")

	source, cleanup := newGraphSource(ctx, rpcFn)
	defer cleanup()

	cacheClient := newCache(ctx)
	defer cacheClient.Close()

	photos := storage.NewPhotoResolver(storage.NewS3Client(ctx))
	if photos.Enabled() {
		logger.Info("Member photo resolution enabled")
	}

	var key *keyfunc.Keyfunc
	if jwksURL := util.GetEnv("AUTH_JWKS_URL"); jwksURL != "" {
		k, err := keyfunc.NewDefault([]string{jwksURL})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
		key = &k
	}

	app := &mid.App{
		Source:          source,
		Cache:           cacheClient,
		Photos:          photos,
		Key:             key,
		MasterAPIKey:    util.GetEnv("MASTER_API_KEY"),
		RPCFn:           rpcFn,
		CacheTTL:        time.Duration(util.GetEnvInt("CACHE_API_TTL", 60)) * time.Second,
		DefaultMaxPairs: util.GetEnvInt("DEFAULT_MAX_PAIRS", 8000),
		DefaultMaxNodes: util.GetEnvInt("DEFAULT_MAX_NODES", 2000),
		DefaultMaxEdges: util.GetEnvInt("DEFAULT_MAX_EDGES", 4000),
		Version:         util.GetEnvString("SERVICE_VERSION", "dev"),
		StartedAt:       time.Now(),
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(echomw.CORS())
	e.Use(echomw.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(mid.RequestIDMiddleware)

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port, "source", source.Kind(), "cache", cacheClient.Kind())
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// newGraphSource prefers a direct database connection when DATABASE_URL is
// configured and falls back to the PostgREST client otherwise.
func newGraphSource(ctx context.Context, rpcFn string) (mid.GraphSource, func()) {
	if dbURL := util.GetEnv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", "err", err)
		}
		if err := util.RetryErrWithContext(ctx, 3, pool.Ping); err != nil {
			logger.Fatal("Database unreachable", "err", err)
		}
		source := pgdirect.New(pool, rpcFn)
		return source, source.Close
	}

	client := rpc.NewClient(rpc.NewClientParams{
		SupabaseURL: util.GetEnv("SUPABASE_URL"),
		SupabaseKey: util.GetEnv("SUPABASE_KEY"),
		Fn:          rpcFn,
		Timeout:     time.Duration(util.GetEnvFloat("SUPABASE_TIMEOUT", 15)) * time.Second,
	})
	return client, func() {}
}

// newCache uses Redis when REDIS_URL is configured and reachable, otherwise
// the in-process TTL map.
func newCache(ctx context.Context) cache.Cache {
	redisURL := util.GetEnv("REDIS_URL")
	if redisURL == "" {
		return cache.NewMemory(util.GetEnvInt("CACHE_MAX_ITEMS", 512))
	}

	redisCache, err := cache.NewRedis(redisURL)
	if err != nil {
		logger.Fatal("Invalid REDIS_URL", "err", err)
	}
	if err := util.RetryErrWithContext(ctx, 3, redisCache.Ping); err != nil {
		logger.Warn("Redis unreachable, falling back to in-memory cache", "err", err)
		redisCache.Close()
		return cache.NewMemory(util.GetEnvInt("CACHE_MAX_ITEMS", 512))
	}
	return redisCache
}
