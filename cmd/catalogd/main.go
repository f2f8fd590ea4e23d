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

	"github.com/aquahimiya/catalogd/config"
	"github.com/aquahimiya/catalogd/internal/adminapi"
	"github.com/aquahimiya/catalogd/internal/app"
	"github.com/aquahimiya/catalogd/internal/webserver"
)

var (
	h        = flag.Bool("h", false, "help usage")
	conffile = flag.String("c", "", "config yaml file")
	initcfg  = flag.Bool("initcfg", false, "write default config > /etc/catalogd.yml")
	workdir  = flag.String("workdir", "", "override system.workdir")
	port     = flag.Int("port", 0, "override web.port")
)

func main() {
	flag.Parse()

	if *h {
		flag.Usage()
		return
	}

	cfg := config.LoadConfig(*conffile)
	if *workdir != "" {
		cfg.System.Workdir = *workdir
	}
	if *port > 0 {
		cfg.Web.Port = *port
	}

	if *initcfg {
		target := *conffile
		if target == "" {
			target = "/etc/catalogd.yml"
		}
		if err := config.SaveConfig(cfg, target); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("config written to", target)
		return
	}

	app.InitLogger(cfg)
	defer func() { _ = zap.L().Sync() }()

	application := app.NewApplication(cfg)
	if err := application.Init(); err != nil {
		zap.L().Fatal("application init failed", zap.Error(err))
	}
	defer application.Release()

	webserver.Init(application, cfg)
	adminapi.Init()

	errc := make(chan error, 1)
	go func() { errc <- webserver.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			zap.L().Error("web server stopped", zap.Error(err))
		}
	case sig := <-quit:
		zap.L().Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := webserver.Shutdown(ctx); err != nil {
			zap.L().Error("web server shutdown failed", zap.Error(err))
		}
	}
}
