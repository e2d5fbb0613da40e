package app

import (
	"context"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/nijsci/labcatalog/config"
	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/mailer"
	"github.com/nijsci/labcatalog/internal/media"
	"github.com/nijsci/labcatalog/internal/repository"
)

type Application struct {
	appConfig   *config.AppConfig
	gormDB      *gorm.DB
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
	repos       *repository.Repositories
	store       media.Store
	mail        mailer.Mailer
	sched       *cron.Cron
	jobs        map[cron.EntryID]jobEntry
}

// Ensure Application implements all interfaces
var (
	_ ConfigProvider    = (*Application)(nil)
	_ RepoProvider      = (*Application)(nil)
	_ MediaProvider     = (*Application)(nil)
	_ MailProvider      = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) Repos() *repository.Repositories {
	return a.repos
}

func (a *Application) Media() media.Store {
	return a.store
}

func (a *Application) Mailer() mailer.Mailer {
	return a.mail
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// DB returns the GORM handle, nil on the MongoDB backend.
func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB switches the application onto a GORM handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
	a.repos = repository.NewGormRepositories(db)
}

// OverrideMedia replaces the media host (used in tests).
func (a *Application) OverrideMedia(store media.Store) {
	a.store = store
}

// OverrideMailer replaces the mail transport (used in tests).
func (a *Application) OverrideMailer(m mailer.Mailer) {
	a.mail = m
}

// initLogger installs the global zap logger, optionally teed into a rotated
// JSON file.
func initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}
	zap.ReplaceGlobals(logger)
}

func (a *Application) Init(cfg *config.AppConfig) error {
	a.appConfig = cfg
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	initLogger(cfg)

	if cfg.Database.Type == "" {
		cfg.Database.Type = DBTypeMongo
	}
	if err := a.openDatabase(cfg.Database, cfg.System.Workdir); err != nil {
		return err
	}
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	a.store, err = newMediaStore(cfg.Media)
	if err != nil {
		return err
	}
	zap.S().Infof("Media provider: %s", cfg.Media.Provider)

	if cfg.MailEnabled() {
		a.mail = mailer.NewSMTPMailer(cfg.Smtp)
	} else {
		zap.S().Warn("SMTP not configured, contact form mail is disabled")
	}

	a.initJob()
	return nil
}

// MigrateDB brings the schema up to date: GORM auto-migration or MongoDB
// index creation.
func (a *Application) MigrateDB(track bool) error {
	if a.mongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return repository.EnsureMongoIndexes(ctx, a.mongoDB)
	}
	if a.gormDB == nil {
		return errors.New("database not initialized")
	}
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return errors.Wrap(db.Migrator().AutoMigrate(domain.Tables...), "auto migrate")
}

// InitDb drops every table or collection and recreates the schema.
func (a *Application) InitDb() error {
	if a.mongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.mongoDB.Drop(ctx); err != nil {
			return errors.Wrap(err, "drop database")
		}
		return a.MigrateDB(false)
	}
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	return a.MigrateDB(false)
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.mongoClient.Disconnect(ctx)
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
