package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mangareader/internal/catalog"
	"mangareader/internal/log"
	"mangareader/internal/server"
	"mangareader/internal/store"
	synchub "mangareader/internal/sync"
	"mangareader/pkg/utils"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "api-server",
		Short: "Manga reader HTTP API backed by the MangaDex catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			return serve(cfg)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (toml, yaml or json)")
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bootstrap() (*utils.Config, error) {
	cfg, err := utils.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	log.Init(cfg.Log)
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the store schema or indexes and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := store.Migrate(ctx, cfg.Store); err != nil {
				return err
			}
			log.Info("store migrated", zap.String("driver", cfg.Store.Driver))
			return nil
		},
	}
}

func serve(cfg *utils.Config) error {
	if cfg.HTTP.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	openCtx, cancelOpen := context.WithTimeout(context.Background(), 15*time.Second)
	stores, err := store.Open(openCtx, cfg.Store)
	cancelOpen()
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			log.Warn("store close error", zap.Error(err))
		}
	}()

	hub := synchub.NewHub()
	router := server.NewRouter(server.Deps{
		HTTP:      cfg.HTTP,
		Catalog:   catalog.NewClient(cfg.Catalog),
		Library:   stores.Library,
		Tracker:   stores.Tracker(),
		Bookmarks: stores.Bookmarks,
		Store:     stores,
		Hub:       hub,
	})

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	var tcpSrv *synchub.Server
	if cfg.Sync.TCPAddr != "" {
		tcpSrv = synchub.NewServer(cfg.Sync.TCPAddr, hub)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tcpSrv.Run(); err != nil {
				errCh <- err
			}
		}()
	}

	var udpSrv *synchub.UDPServer
	if cfg.Sync.UDPAddr != "" {
		udpSrv = synchub.NewUDPServer(cfg.Sync.UDPAddr)
		hub.AttachUDP(udpSrv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := udpSrv.Run(); err != nil {
				errCh <- err
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("HTTP API server listening",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("base_path", cfg.HTTP.BasePath),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		log.Error("server error", zap.Error(runErr))
	}

	log.Info("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", zap.Error(err))
	}
	if tcpSrv != nil {
		if err := tcpSrv.Close(); err != nil {
			log.Warn("tcp shutdown error", zap.Error(err))
		}
	}
	if udpSrv != nil {
		if err := udpSrv.Close(); err != nil {
			log.Warn("udp shutdown error", zap.Error(err))
		}
	}
	hub.Close()

	wg.Wait()
	log.Info("servers stopped")
	return runErr
}
