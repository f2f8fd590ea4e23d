package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aquahimiya/catalogd/config"
	"github.com/aquahimiya/catalogd/internal/app"
	"github.com/aquahimiya/catalogd/internal/clientcache"
)

var (
	conffile = flag.String("c", "", "config yaml file")
	server   = flag.String("server", "", "override client.server_url")
	cacheDB  = flag.String("cache", "", "override client.cache_file")
	reset    = flag.Bool("reset", false, "wipe the local cache before syncing")
	watch    = flag.Bool("watch", false, "keep resyncing on client.schedule")
)

func main() {
	flag.Parse()

	cfg := config.LoadConfig(*conffile)
	cfg.Logger.FileEnable = false
	if *server != "" {
		cfg.Client.ServerURL = *server
	}
	if *cacheDB != "" {
		cfg.Client.CacheFile = *cacheDB
	}
	app.InitLogger(cfg)
	defer func() { _ = zap.L().Sync() }()

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "catalogsync:", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Client.CacheFile), 0o755); err != nil {
		return err
	}
	storage, err := clientcache.OpenBolt(cfg.Client.CacheFile)
	if err != nil {
		return err
	}
	defer storage.Close()

	cache := clientcache.New(storage, clientcache.Options{
		Version:      cfg.Client.CacheVersion,
		Remote:       clientcache.NewHTTPRemote(cfg.Client.ServerURL),
		FetchTimeout: cfg.Client.Timeout,
	})
	if *reset {
		if err := cache.Reset(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rctx, cancel := context.WithTimeout(ctx, cfg.Client.Timeout)
	err = cache.Refresh(rctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "sync incomplete:", err)
	}
	printSummary(cache)

	if !*watch {
		return nil
	}
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		loc = time.Local
	}
	zap.L().Info("watching remote catalog", zap.String("schedule", cfg.Client.Schedule))
	if err := clientcache.Watch(ctx, cache, cfg.Client.Schedule, loc); err != nil {
		return err
	}
	printSummary(cache)
	return nil
}

func printSummary(cache *clientcache.Cache) {
	settings := cache.Settings()
	fmt.Printf("state:      %s\n", cache.State())
	fmt.Printf("site:       %s\n", settings.SiteName)
	fmt.Printf("products:   %d\n", len(cache.Products()))
	fmt.Printf("categories: %d\n", len(cache.Categories()))
	fmt.Printf("reseeds:    %d\n", cache.Reseeds())
}
