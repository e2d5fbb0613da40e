package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nijsci/labcatalog/config"
	"github.com/nijsci/labcatalog/internal/adminapi"
	"github.com/nijsci/labcatalog/internal/app"
	"github.com/nijsci/labcatalog/internal/webserver"
)

var (
	h        = flag.Bool("h", false, "help usage")
	showVer  = flag.Bool("v", false, "show version")
	conffile = flag.String("c", "", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and recreate the schema, then exit")
	seed     = flag.Bool("seed", false, "seed the catalog with fixture products, then exit")
)

const version = "1.0.0"

// @title LabCatalog API
// @version 1.0.0
// @description Lab equipment catalog: storefront and admin endpoints.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version)
		return
	}
	if *h {
		flag.Usage()
		return
	}

	cfg := config.LoadConfig(*conffile)
	cfg.InitDirs()

	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}
	defer application.Release()

	if *initdb {
		if err := application.InitDb(); err != nil {
			zap.S().Fatalf("init database failed: %v", err)
		}
		zap.S().Info("database initialized")
		return
	}

	if *seed {
		res, err := application.SeedCatalog(context.Background())
		if err != nil {
			zap.S().Fatalf("seed failed: %v", err)
		}
		zap.S().Info(res.Message)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	webserver.Init(application)
	adminapi.Init()
	application.StartBackgroundJobs(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return webserver.Listen()
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.S().Info("shutting down web server")
		return webserver.Shutdown(10 * time.Second)
	})
	if err := g.Wait(); err != nil {
		zap.S().Errorf("server stopped: %v", err)
	}
}
