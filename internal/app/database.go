package app

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nijsci/labcatalog/config"
	"github.com/nijsci/labcatalog/internal/media"
	"github.com/nijsci/labcatalog/internal/repository"
)

const (
	DBTypeMongo    = "mongodb"
	DBTypePostgres = "postgres"
	DBTypeSqlite   = "sqlite"
)

func (a *Application) openDatabase(cfg config.DBConfig, workdir string) error {
	switch cfg.Type {
	case DBTypeMongo:
		client, db, err := connectMongo(cfg)
		if err != nil {
			return err
		}
		a.mongoClient = client
		a.mongoDB = db
		a.repos = repository.NewMongoRepositories(db)
		return nil
	case DBTypePostgres, DBTypeSqlite:
		db, err := openGorm(cfg, workdir)
		if err != nil {
			return err
		}
		a.OverrideDB(db)
		return nil
	default:
		return errors.Errorf("unsupported database type %q", cfg.Type)
	}
}

func connectMongo(cfg config.DBConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxConn > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxConn))
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mongodb connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "mongodb ping")
	}
	return client, client.Database(cfg.Name), nil
}

func openGorm(cfg config.DBConfig, workdir string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case DBTypePostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name)
		dialector = postgres.Open(dsn)
	default:
		file := cfg.Name
		if path.Ext(file) == "" {
			file += ".db"
		}
		if !path.IsAbs(file) {
			file = path.Join(workdir, "data", file)
		}
		dialector = sqlite.Open(file)
	}

	logLevel := logger.Warn
	if cfg.Debug {
		logLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.Type)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "sql handle")
	}
	if cfg.Type == DBTypeSqlite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
	}
	return db, nil
}

func newMediaStore(cfg config.MediaConfig) (media.Store, error) {
	switch cfg.Provider {
	case "cloudinary":
		return media.NewCloudinaryStore(cfg.CloudName, cfg.ApiKey, cfg.ApiSecret)
	case "sftp":
		return media.NewSFTPStore(cfg.SftpAddr, cfg.SftpUser, cfg.SftpPasswd, cfg.SftpDir, cfg.PublicURL), nil
	case "local", "":
		return media.NewLocalStore(cfg.LocalDir, cfg.PublicURL), nil
	default:
		return nil, errors.Errorf("unsupported media provider %q", cfg.Provider)
	}
}
