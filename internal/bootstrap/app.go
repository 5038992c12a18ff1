package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"portfolio-backend/internal/account"
	"portfolio-backend/internal/documents"
	"portfolio-backend/internal/imports"
	"portfolio-backend/internal/parser"
	"portfolio-backend/internal/profiles"
	"portfolio-backend/internal/services/health"
	"portfolio-backend/internal/shared/auth"
	"portfolio-backend/internal/shared/config"
	"portfolio-backend/internal/shared/server"
	"portfolio-backend/internal/shared/storage/db"
	"portfolio-backend/internal/shared/storage/object"
	localstore "portfolio-backend/internal/shared/storage/object/local"
	s3store "portfolio-backend/internal/shared/storage/object/s3"
	"portfolio-backend/internal/shared/telemetry"
	"portfolio-backend/internal/sharelinks"
	"portfolio-backend/internal/subdomains"
	"portfolio-backend/internal/templates"
	"portfolio-backend/internal/tenant"
)

// App holds shared dependencies and the assembled router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Redis  redis.UniversalClient
	Store  object.ObjectStore

	DocumentsRepo    documents.Repo
	ShareStore       sharelinks.Store
	ProfilesService  *profiles.Service
	DocumentsService *documents.Service
	ShareManager     *sharelinks.Manager
	Publisher        *tenant.Publisher
	TenantRouter     *tenant.Router
	Sweeper          *sharelinks.Sweeper
}

// Build prepares dependencies and wires routes. Storage falls back to memory
// only in dev-like environments.
func Build(ctx context.Context, cfg config.Config) (_ *App, err error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			if closeErr := app.Close(); closeErr != nil {
				telemetry.Warn("bootstrap: close after failed build", map[string]any{"error": closeErr})
			}
		}
	}()

	if app.DB, err = openDatabase(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Redis, err = buildRedis(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Store, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	verifier, err := buildVerifier(cfg)
	if err != nil {
		return nil, err
	}
	if app.ShareStore, err = buildShareStore(cfg, app.DB, app.Redis); err != nil {
		return nil, err
	}
	sqlDB, redisClient, store, shareStore := app.DB, app.Redis, app.Store, app.ShareStore

	var (
		docRepo     documents.Repo
		profileRepo profiles.Repo
	)
	if sqlDB != nil {
		docRepo = &documents.PGRepo{DB: sqlDB}
		profileRepo = &profiles.PGRepo{DB: sqlDB}
	} else {
		docRepo = documents.NewMemoryRepo()
		profileRepo = profiles.NewMemoryRepo()
	}
	app.DocumentsRepo = docRepo

	profileSvc := profiles.NewService(profileRepo)
	docSvc := documents.NewService(docRepo, profileSvc)
	shareMgr := sharelinks.NewManager(shareStore, docSvc, cfg.ShareTTL)
	publisher := tenant.NewPublisher(docRepo, profileSvc)
	tenantRouter := tenant.NewRouter(cfg.BaseDomain, docRepo)
	importSvc := imports.NewService(store, parser.Heuristic{}, docSvc)

	app.ProfilesService = profileSvc
	app.DocumentsService = docSvc
	app.ShareManager = shareMgr
	app.Publisher = publisher
	app.TenantRouter = tenantRouter
	app.Sweeper = sharelinks.NewSweeper(shareMgr, cfg.ShareSweepInterval)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:   cfg,
		Verifier: verifier,
		Tenant: tenant.Middleware(tenant.MiddlewareConfig{
			Router:      tenantRouter,
			Tiers:       profileSvc,
			MainSiteURL: cfg.MainSiteURL,
		}),
		Health:          health.NewService().WithDB(sqlDB).WithRedis(redisClient),
		AccountHandler:  account.NewHandler(account.NewService(profileSvc, docRepo)),
		DocumentHandler: documents.NewHandler(docSvc, cfg.BaseDomain),
		ImportHandler:   imports.NewHandler(importSvc, cfg.BaseDomain),
		DeployHandler:   tenant.NewHandler(publisher, cfg.BaseDomain),
		ShareHandler:    sharelinks.NewHandler(shareMgr, profileSvc, cfg.MainSiteURL),
		SubdomainCheck:  subdomains.NewHandler(subdomains.NewAllocator(docRepo)),
		TemplateHandler: templates.NewHandler(profileSvc),
		ProfileHandler:  profiles.NewHandler(profileSvc),
	})
	return app, nil
}

// Close releases pooled connections.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

var openDatabase = buildDB

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap: DATABASE_URL empty; using in-memory repositories", nil)
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap: database connect failed; using in-memory repositories", map[string]any{"error": err})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildRedis(ctx context.Context, cfg config.Config) (redis.UniversalClient, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		if cfg.ShareStore == "redis" {
			return nil, fmt.Errorf("SHARE_STORE=redis requires REDIS_URL")
		}
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		if cfg.IsDevLike() && cfg.ShareStore != "redis" {
			telemetry.Warn("bootstrap: redis unreachable; continuing without it", map[string]any{"error": err})
			return nil, nil
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// buildShareStore honours SHARE_STORE and otherwise follows the document
// backend: redis when configured, then postgres, then memory.
func buildShareStore(cfg config.Config, sqlDB *sql.DB, client redis.UniversalClient) (sharelinks.Store, error) {
	kind := cfg.ShareStore
	if kind == "" {
		switch {
		case client != nil:
			kind = "redis"
		case sqlDB != nil:
			kind = "postgres"
		default:
			kind = "memory"
		}
	}
	switch kind {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("SHARE_STORE=redis requires REDIS_URL")
		}
		return sharelinks.NewRedisStore(client), nil
	case "postgres":
		if sqlDB == nil {
			return nil, fmt.Errorf("SHARE_STORE=postgres requires DATABASE_URL")
		}
		return sharelinks.NewPGStore(sqlDB), nil
	default:
		if !cfg.IsDevLike() {
			return nil, fmt.Errorf("in-memory share store is only allowed in dev")
		}
		return sharelinks.NewMemoryStore(), nil
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildVerifier(cfg config.Config) (*auth.Verifier, error) {
	v, err := auth.NewVerifier(cfg.JWTSecret)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, auth.ErrMissingSecret) && cfg.IsDevLike() {
		telemetry.Warn("bootstrap: JWT_SECRET empty; only X-User-Id dev identities are accepted", nil)
		return nil, nil
	}
	return nil, err
}
