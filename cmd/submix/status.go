package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"submix/internal/db"
	"submix/internal/logger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show link store statistics",
	Long:  `Displays a dashboard of the link store: file sizes, link counts per scheme and per collector source.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		database, err := db.Connect(cfg.Database.Path)
		if err != nil {
			logger.Log.Fatalf("Error connecting to DB: %v", err)
		}
		defer db.Close(database)
		if err := db.Migrate(database); err != nil {
			logger.Log.Fatalf("Error migrating DB: %v", err)
		}

		stats, err := db.GetStats(database)
		if err != nil {
			logger.Log.Fatalf("Error reading stats: %v", err)
		}

		dbSize := getFileSize(cfg.Database.Path)
		walSize := getFileSize(cfg.Database.Path + "-wal")

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

		fmt.Println("\n📊 \033[1mSUBMIX STATUS DASHBOARD\033[0m")
		fmt.Println("────────────────────────────────────────")

		fmt.Fprintln(w, "\033[1;36m[ STORE ]\033[0m\t")
		fmt.Fprintf(w, "  Database Path:\t%s\n", cfg.Database.Path)
		fmt.Fprintf(w, "  DB Size:\t%s\n", formatBytes(dbSize))
		if walSize > 0 {
			fmt.Fprintf(w, "  WAL Size:\t%s (pending checkpoint)\n", formatBytes(walSize))
		}
		fmt.Fprintf(w, "  Total Links:\t%d\n", stats.Total)
		if cfg.Database.MaxLinks > 0 {
			fmt.Fprintf(w, "  Capacity:\t%d\n", cfg.Database.MaxLinks)
		}
		if !stats.Newest.IsZero() {
			fmt.Fprintf(w, "  Last Insert:\t%s\n", stats.Newest.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(w, "\t")

		fmt.Fprintln(w, "\033[1;36m[ SCHEMES ]\033[0m\t")
		if len(stats.ByScheme) == 0 {
			fmt.Fprintln(w, "  (No links stored)")
		}
		for _, s := range stats.ByScheme {
			fmt.Fprintf(w, "  %s:\t%d\n", s.Name, s.Count)
		}
		fmt.Fprintln(w, "\t")

		fmt.Fprintln(w, "\033[1;36m[ SOURCES ]\033[0m\t")
		for _, s := range stats.BySource {
			fmt.Fprintf(w, "  %s:\t%d\n", s.Name, s.Count)
		}

		w.Flush()
		fmt.Println("")
	},
}

func getFileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
