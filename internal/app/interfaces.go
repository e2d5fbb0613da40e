package app

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/nijsci/labcatalog/config"
	"github.com/nijsci/labcatalog/internal/mailer"
	"github.com/nijsci/labcatalog/internal/media"
	"github.com/nijsci/labcatalog/internal/repository"
)

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// RepoProvider provides the entity repositories
type RepoProvider interface {
	Repos() *repository.Repositories
}

// MediaProvider provides the media host
type MediaProvider interface {
	Media() media.Store
}

// MailProvider provides contact mail delivery; Mailer returns nil when
// SMTP is not configured.
type MailProvider interface {
	Mailer() mailer.Mailer
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
	Jobs() []JobInfo
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	ConfigProvider
	RepoProvider
	MediaProvider
	MailProvider
	SchedulerProvider

	// SeedCatalog fills the catalog with fixture products when it is sparse
	SeedCatalog(ctx context.Context) (*SeedResult, error)
	// SweepMedia removes unreferenced local media files
	SweepMedia(ctx context.Context) (int, error)
}
