package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sahilchouksey/intern-track/api"
	"github.com/sahilchouksey/intern-track/config"
	"github.com/sahilchouksey/intern-track/database"
	"github.com/sahilchouksey/intern-track/router"
	"github.com/sahilchouksey/intern-track/services"
	"github.com/sahilchouksey/intern-track/services/blobstore"
	"github.com/sahilchouksey/intern-track/services/cron"
	"github.com/sahilchouksey/intern-track/services/realtime"
	"github.com/sahilchouksey/intern-track/services/session"
	"github.com/sahilchouksey/intern-track/services/upload"
	"github.com/sahilchouksey/intern-track/utils"
	"github.com/sahilchouksey/intern-track/utils/auth"
	"github.com/sahilchouksey/intern-track/utils/cache"
)

const shutdownTimeout = 10 * time.Second

func SetupAndRunServer() error {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}
	if env.JWT_SECRET == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	logger, closeLog, err := utils.NewLogger(utils.LoggerConfig{
		Level:      env.LOG_LEVEL,
		File:       env.LOG_FILE,
		Production: env.IsProduction(),
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize GORM database connection
	store, err := database.StartGORM(env, logger)
	if err != nil {
		logger.Error("failed to connect to database, is Postgres running?", zap.Error(err))
		return err
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		logger.Error("failed to initialize database tables", zap.Error(err))
		return err
	}
	db := store.DB()

	cacheStore, broker, closeCache := setupCache(env, logger)
	defer closeCache()

	if err := realtime.RegisterCallbacks(db, broker, logger); err != nil {
		return fmt.Errorf("failed to register change callbacks: %w", err)
	}
	hub := realtime.NewHub(db, broker, logger)
	if err := hub.Start(ctx); err != nil {
		return err
	}
	defer hub.Close()

	blobs, memoryBlobs, err := NewBlobStore(env, logger)
	if err != nil {
		return err
	}
	uploads, err := NewUploadService(env, db, blobs, cacheStore, nil, logger)
	if err != nil {
		return err
	}

	sessions := NewAuthService(env, db, cacheStore, logger)

	internships := services.NewInternshipService(db)

	// Initialize Cron Manager (only if enabled via environment variable)
	if env.CRON_ENABLED {
		cronManager := cron.NewCronManager(db, blobs, logger)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			logger.Warn("failed to start cron jobs", zap.Error(err))
		} else {
			defer cronManager.Stop()
		}
	}

	// Room for the multipart envelope around the largest accepted file
	bodyLimit := (env.UPLOAD_MAX_MB + 1) << 20
	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT), bodyLimit, logger)

	router.SetupRoutes(server.GetEngine(), &router.Deps{
		Store:        store,
		Cache:        cacheStore,
		MemoryBlobs:  memoryBlobs,
		Hub:          hub,
		Logger:       logger,
		Sessions:     sessions,
		Profiles:     services.NewProfileService(db, uploads),
		Internships:  internships,
		Applications: services.NewApplicationService(db, internships),
		Logbooks:     services.NewLogbookService(db),
		Certificates: services.NewCertificateService(db),
		Uploads:      uploads,
		Plans:        services.NewPlanService(db, uploads),
		Courses:      services.NewCourseService(db),
		Ratings:      services.NewRatingService(db),
		Dashboards:   services.NewDashboardService(db, cacheStore, logger),

		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: env.RATE_LIMIT_PER_MINUTE,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// NewAuthService wires the JWT manager and the token blacklist
func NewAuthService(env *config.EnviornmentVariable, db *gorm.DB, cacheStore cache.Store, logger *zap.Logger) *session.AuthService {
	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        env.JWT_ISSUER,
	})
	return session.NewAuthService(db, jwtManager, auth.NewBlacklistService(db, cacheStore), logger)
}

// NewUploadService builds the acquisition chain, pipeline and tracker. A nil
// guard locks through the tracker's cache, which spans every API instance.
func NewUploadService(env *config.EnviornmentVariable, db *gorm.DB, blobs blobstore.Store, cacheStore cache.Store, guard upload.Guard, logger *zap.Logger) (*services.UploadService, error) {
	bridge, err := upload.NewBridgeClient(env.UPLOAD_BRIDGE_URL)
	if err != nil {
		return nil, err
	}
	pipeline := upload.NewPipeline(upload.Config{
		Chain:    upload.NewDefaultChain(logger, bridge, upload.OSFileSystem{}),
		Store:    blobs,
		MaxBytes: int64(env.UPLOAD_MAX_MB) << 20,
		Logger:   logger,
	})
	tracker := services.NewProgressTracker(cacheStore)
	return services.NewUploadService(pipeline, tracker, guard, upload.NewRecorder(db), logger), nil
}

// setupCache connects to Redis when REDIS_URL is set and falls back to the
// in-process cache and broker otherwise
func setupCache(env *config.EnviornmentVariable, logger *zap.Logger) (cache.Store, realtime.Broker, func()) {
	if env.REDIS_URL != "" {
		rc, err := cache.NewRedisCache(env.REDIS_URL, env.REDIS_PASSWORD, env.REDIS_DB)
		if err == nil {
			logger.Info("using Redis for cache, locks and change fan-out")
			return rc, realtime.NewRedisBroker(rc.GetClient(), logger), func() { _ = rc.Close() }
		}
		logger.Warn("failed to connect to Redis, falling back to in-process cache", zap.Error(err))
	}

	mc := cache.NewMemoryCache()
	broker := realtime.NewMemoryBroker()
	return mc, broker, func() {
		_ = broker.Close()
		_ = mc.Close()
	}
}

// NewBlobStore returns Spaces when a bucket is configured, otherwise an
// in-memory store served by the API itself
func NewBlobStore(env *config.EnviornmentVariable, logger *zap.Logger) (blobstore.Store, *blobstore.MemoryStore, error) {
	if env.DO_SPACES_BUCKET != "" {
		spaces, err := blobstore.NewSpacesClient(blobstore.SpacesConfig{
			AccessKey: env.DO_SPACES_ACCESS_KEY,
			SecretKey: env.DO_SPACES_SECRET_KEY,
			Bucket:    env.DO_SPACES_BUCKET,
			Region:    env.DO_SPACES_REGION,
			Endpoint:  env.DO_SPACES_ENDPOINT,
			CDNURL:    env.DO_SPACES_CDN_ENDPOINT,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Spaces client: %w", err)
		}
		logger.Info("uploading to Spaces", zap.String("bucket", env.DO_SPACES_BUCKET))
		return spaces, nil, nil
	}

	logger.Warn("DO_SPACES_BUCKET not set, uploads are kept in memory")
	mem := blobstore.NewMemoryStore(fmt.Sprintf("http://localhost:%d/blobs", env.PORT))
	return mem, mem, nil
}
