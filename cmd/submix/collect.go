package main

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"submix/internal/collectors"
	"submix/internal/db"
	"submix/internal/logger"
)

var collectParams map[string]string

var collectCmd = &cobra.Command{
	Use:   "collect [collector_names...]",
	Short: "Run collectors and store the links they find",
	Long:  `Run all collectors defined in config, or specific ones by name. Use --param to override configuration parameters.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if len(args) > 0 {
			cfg.FilterCollectors(args)
		}
		if len(cfg.Collectors) == 0 {
			logger.Log.Warn("No collectors matched the provided names.")
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

		bar := progressbar.NewOptions(len(cfg.Collectors),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(15),
			progressbar.OptionSetDescription("[cyan]Collecting...[reset]"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)

		var totalInserted int64
		for _, cCfg := range cfg.Collectors {
			bar.Describe("[cyan]" + cCfg.Name + "[reset]")
			logger.Log.Infof("🏃 Running collector: %s (%s)...", cCfg.Name, cCfg.Type)

			collector, err := collectors.Get(cCfg.Type)
			if err != nil {
				logger.Log.Warnf("Skipping: %v", err)
				bar.Add(1)
				continue
			}

			params := applyParams(cCfg.Params, collectParams)
			if cfg.Fetch.Proxy != "" {
				params["_proxy_url"] = cfg.Fetch.Proxy
			}
			params["_timeout"] = cfg.Fetch.Timeout
			params["_user_agent"] = cfg.Fetch.UserAgent

			rawLinks, err := collector.Collect(cmd.Context(), params)
			if err != nil {
				logger.Log.Errorf("Error running collector: %v", err)
				bar.Add(1)
				continue
			}

			inserted, rejected, err := db.SaveLinks(database, cCfg.Name, rawLinks)
			if err != nil {
				logger.Log.Errorf("Error storing links: %v", err)
			}
			totalInserted += inserted
			logger.Log.Infof("✅ Collector %s finished. %d new, %d unparseable, %d seen.",
				cCfg.Name, inserted, rejected, int64(len(rawLinks)-rejected)-inserted)
			bar.Add(1)
		}
		bar.Finish()

		if cfg.Database.MaxLinks > 0 {
			pruned, err := db.Prune(database, cfg.Database.MaxLinks)
			if err != nil {
				logger.Log.Errorf("Pruning failed: %v", err)
			} else if pruned > 0 {
				logger.Log.Infof("🧹 Pruned %d old links", pruned)
			}
		}
		logger.Log.Infof("📦 Stored %d new links", totalInserted)
	},
}

func init() {
	collectCmd.Flags().StringToStringVarP(&collectParams, "param", "p", nil, "Override collector params")
	rootCmd.AddCommand(collectCmd)
}
