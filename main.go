package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	dbsqlite "zotreader/internal/adapters/db/sqlite"
	"zotreader/internal/adapters/filecache"
	"zotreader/internal/adapters/provider/factory"
	"zotreader/internal/adapters/secrets"
	"zotreader/internal/adapters/zotero"
	apiapp "zotreader/internal/api/app"
	"zotreader/internal/config"
	chatusecase "zotreader/internal/usecase/chat"
	"zotreader/internal/usecase/paperctx"
	"zotreader/internal/usecase/registry"
	translatorusecase "zotreader/internal/usecase/translator"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	slog.SetDefault(log)

	db, err := dbsqlite.Init(cfg.DB.Path)
	if err != nil {
		log.Error("open database", "path", cfg.DB.Path, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	providerRepo := dbsqlite.NewProviderRepo(db)
	cacheRepo := dbsqlite.NewCacheRepo(db)
	chatRepo := dbsqlite.NewChatRepo(db)
	settingsRepo := dbsqlite.NewSettingsRepo(db)
	pdfCacheRepo := dbsqlite.NewPdfCacheRepo(db)

	vault := secrets.New(cfg.Secret)
	zoteroClient := zotero.New(settingsRepo, vault)

	files, err := filecache.New(cfg.PdfCache.Dir, cfg.PdfCache.MaxBytes, pdfCacheRepo, zoteroClient)
	if err != nil {
		log.Error("init pdf cache", "dir", cfg.PdfCache.Dir, "err", err)
		os.Exit(1)
	}

	providers := registry.New(registry.Deps{
		Providers:       providerRepo,
		Vault:           vault,
		BuildTranslator: factory.Translator,
		BuildCompleter:  factory.Completer,
	})
	translate := translatorusecase.New(translatorusecase.Deps{
		Providers:       providers,
		Cache:           cacheRepo,
		BuildTranslator: factory.Translator,
		BuildCompleter:  factory.Completer,
	})
	conversation := chatusecase.New(chatusecase.Deps{
		Providers:      providers,
		History:        chatRepo,
		Settings:       settingsRepo,
		Context:        paperctx.New(zoteroClient),
		BuildCompleter: factory.Completer,
	})

	server := apiapp.NewServer(apiapp.Deps{
		Log:        log,
		Providers:  providers,
		Translator: translate,
		Chat:       conversation,
		Library:    zoteroClient,
		Zotero:     zoteroClient,
		Files:      files,
		Settings:   settingsRepo,
		Vault:      vault,
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("serve", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", "err", err)
	}
}
