package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"mangareader/internal/catalog"
	"mangareader/internal/grpcserver"
	"mangareader/internal/log"
	"mangareader/internal/store"
	"mangareader/pkg/utils"
)

func main() {
	var configFile string
	rootCmd := &cobra.Command{
		Use:          "grpc-server",
		Short:        "Manga reader gRPC service (JSON codec)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := utils.LoadConfig(configFile)
			if err != nil {
				return err
			}
			log.Init(cfg.Log)
			defer log.Sync()
			return run(cfg)
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (toml, yaml or json)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *utils.Config) error {
	openCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	stores, err := store.Open(openCtx, cfg.Store)
	cancel()
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close(context.Background()) }()

	listener, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	svc := grpcserver.NewServer(catalog.NewClient(cfg.Catalog), stores.Library, stores.Tracker(), stores.Bookmarks, nil)
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor))
	grpcserver.RegisterReaderServer(grpcServer, svc)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		grpcServer.GracefulStop()
	}()

	log.Info("gRPC server listening", zap.String("addr", cfg.GRPC.Addr), zap.String("service", grpcserver.ServiceName))
	if err := grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("grpc server stopped: %w", err)
	}
	return nil
}
