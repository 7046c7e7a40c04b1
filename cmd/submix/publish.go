package main

import (
	"errors"

	"github.com/spf13/cobra"

	"submix/internal/db"
	"submix/internal/logger"
	"submix/internal/node"
	"submix/internal/publishers"
)

var publishParams map[string]string

var publishCmd = &cobra.Command{
	Use:   "publish [publisher_names...]",
	Short: "Build configurations from stored links and publish them",
	Long:  `Run all publishers or specific ones. Each publisher reads the links of its sources from the store. Use --param to override publisher configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if len(args) > 0 {
			cfg.FilterPublishers(args)
		}
		if len(cfg.Publishers) == 0 {
			logger.Log.Warn("No publishers matched.")
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

		gen := newGenerator(cfg)
		decorate := cfg.GeoIP.Enabled && initGeoIP(cfg)

		for _, pubCfg := range cfg.Publishers {
			logger.Log.Infof("📨 Running Publisher: %s (%s)...", pubCfg.Name, pubCfg.Type)

			plugin, err := publishers.Get(pubCfg.Type)
			if err != nil {
				logger.Log.Warnf("Plugin not found: %v", err)
				continue
			}
			mode, detail := parseEnums(pubCfg.Mode, pubCfg.Detail)
			format, err := publishers.ParseFormat(pubCfg.Format)
			if err != nil {
				logger.Log.Errorf("Publisher %s: %v", pubCfg.Name, err)
				continue
			}

			links, err := db.LoadLinks(database, pubCfg.Sources)
			if err != nil {
				logger.Log.Errorf("Error loading links: %v", err)
				continue
			}

			doc, batch, err := publishers.BuildDocument(links, publishers.BuildOptions{
				Generator: gen,
				Mode:      mode,
				Detail:    detail,
				Format:    format,
				Dedupe:    cfg.Generator.Dedupe,
				Decorate:  decorate,
			})
			if errors.Is(err, node.ErrEmptyNodeList) {
				logger.Log.Warnf("Nothing to publish for %s (%d links skipped)", pubCfg.Name, batch.SkippedCount())
				continue
			}
			if err != nil {
				logger.Log.Errorf("Build failed: %v", err)
				continue
			}

			params := applyParams(pubCfg.Params, publishParams)
			if cfg.Fetch.Proxy != "" {
				params["_proxy_url"] = cfg.Fetch.Proxy
			}
			params["_timeout"] = cfg.Fetch.Timeout

			if err := plugin.Publish(cmd.Context(), doc, params); err != nil {
				logger.Log.Errorf("Publish failed: %v", err)
			} else {
				logger.Log.Infof("✅ Published %d proxies.", doc.Nodes)
			}
		}
	},
}

func init() {
	publishCmd.Flags().StringToStringVarP(&publishParams, "param", "p", nil, "Override publisher params (e.g. -p path=clash.yaml)")
	rootCmd.AddCommand(publishCmd)
}
