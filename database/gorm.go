package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sahilchouksey/intern-track/config"
	"github.com/sahilchouksey/intern-track/model"
)

// Storage is what the rest of the application needs from the database
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error
	DB() *gorm.DB
}

type GORMStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM(env *config.EnviornmentVariable, log *zap.Logger) (*GORMStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	sslMode := env.DB_SSL_MODE
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.DB_HOST,
		env.DB_USER_NAME,
		env.DB_PASSWORD,
		env.DB_NAME,
		env.DB_PORT,
		sslMode,
	)

	gormLogger := logger.Default.LogMode(logger.Warn)
	if env.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to PostgreSQL", zap.String("host", env.DB_HOST), zap.String("database", env.DB_NAME))

	return NewGORMStore(db, log), nil
}

// NewGORMStore wraps an already opened connection
func NewGORMStore(db *gorm.DB, log *zap.Logger) *GORMStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &GORMStore{db: db, logger: log}
}

// Init runs AutoMigrate for every model
func (s *GORMStore) Init() error {
	s.logger.Info("running AutoMigrate")
	if err := s.db.AutoMigrate(model.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the GORM handle for services
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
