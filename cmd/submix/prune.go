package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"submix/internal/db"
	"submix/internal/logger"
)

var pruneCmd = &cobra.Command{
	Use:   "prune [limit]",
	Short: "Shrink the link store to a specific size",
	Long: `Removes the oldest links until the total count matches the target limit.
If no limit is provided, the 'max_links' value from config.yaml is used.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		limit := cfg.Database.MaxLinks
		if len(args) > 0 {
			val, err := strconv.Atoi(args[0])
			if err != nil || val < 0 {
				logger.Log.Fatalf("Invalid limit argument: %q", args[0])
			}
			limit = val
			logger.Log.Infof("🎯 Pruning target manually set to: %d", limit)
		}
		if limit == 0 {
			logger.Log.Warn("No limit configured, nothing to prune.")
			return
		}

		database, err := db.Connect(cfg.Database.Path)
		if err != nil {
			logger.Log.Fatalf("Error connecting to DB: %v", err)
		}
		defer db.Close(database)
		if err := db.Migrate(database); err != nil {
			logger.Log.Fatalf("Error migrating DB: %v", err)
		}

		deleted, err := db.Prune(database, limit)
		if err != nil {
			logger.Log.Errorf("Pruning failed: %v", err)
			return
		}
		logger.Log.Infof("✅ Store maintenance complete. Removed %d links.", deleted)
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}
