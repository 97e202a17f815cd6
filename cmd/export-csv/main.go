package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mangareader/internal/csvio"
	"mangareader/internal/log"
	"mangareader/internal/store"
	"mangareader/pkg/utils"
)

func main() {
	var (
		configFile string
		userID     string
		outDir     string
	)

	rootCmd := &cobra.Command{
		Use:          "export-csv",
		Short:        "Export a user's library, progress and bookmarks as CSV",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			cfg, err := utils.LoadConfig(configFile)
			if err != nil {
				return err
			}
			log.Init(cfg.Log)
			defer log.Sync()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			stores, err := store.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer func() { _ = stores.Close(context.Background()) }()

			return csvio.Export(ctx, stores, userID, outDir)
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (toml, yaml or json)")
	rootCmd.Flags().StringVar(&userID, "user", "", "user id to export")
	rootCmd.Flags().StringVar(&outDir, "out", "data", "output directory")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
