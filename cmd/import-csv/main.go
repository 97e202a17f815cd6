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
		inDir      string
	)

	rootCmd := &cobra.Command{
		Use:          "import-csv",
		Short:        "Load a user's library, progress and bookmarks from export-csv files",
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

			_, err = csvio.Import(ctx, stores, userID, inDir)
			return err
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file (toml, yaml or json)")
	rootCmd.Flags().StringVar(&userID, "user", "", "user id to import")
	rootCmd.Flags().StringVar(&inDir, "in", "data", "directory holding <user>_*.csv files")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
