package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"submix/internal/link"
	"submix/internal/logger"
	"submix/internal/metrics"
	"submix/internal/node"
	"submix/internal/publishers"
	"submix/internal/publishers/file"
	"submix/internal/publishers/stdout"
)

var (
	convertSubs   []string
	convertLinks  []string
	convertMode   string
	convertDetail string
	convertFormat string
	convertOutput string
	convertGeoIP  bool
	convertDedupe bool
	convertReport bool
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert share-links into a Clash configuration",
	Long: `Reads share-links from files (or stdin with "-" or no input at all),
subscription URLs given with --sub and single links given with --link, and
writes a Clash/mihomo configuration to stdout or --output.

Files and subscriptions may hold plain links, one per line, or a base64
encoded subscription body. Links that cannot be parsed are skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		if convertMode == "" {
			convertMode = cfg.Generator.Mode
		}
		if convertDetail == "" {
			convertDetail = cfg.Generator.Detail
		}
		mode, detail := parseEnums(convertMode, convertDetail)
		format, err := publishers.ParseFormat(convertFormat)
		if err != nil {
			logger.Log.Fatalf("Invalid --format: %v", err)
		}

		links := append([]string(nil), convertLinks...)
		if len(args) == 0 && len(convertSubs) == 0 && len(convertLinks) == 0 {
			args = []string{"-"}
		}
		for _, name := range args {
			body, err := readInput(name)
			if err != nil {
				logger.Log.Fatalf("Error reading %s: %v", name, err)
			}
			links = append(links, link.Collect(body)...)
		}

		if len(convertSubs) > 0 {
			fetcher := newFetcher(cfg)
			for _, sub := range convertSubs {
				fetched, err := fetcher.Fetch(cmd.Context(), sub)
				if err != nil {
					logger.Log.Fatalf("Error fetching subscription: %v", err)
				}
				logger.Log.Infof("📥 Subscription returned %d links", len(fetched))
				links = append(links, fetched...)
			}
		}

		decorate := false
		if convertGeoIP || cfg.GeoIP.Enabled {
			decorate = initGeoIP(cfg)
		}

		m := metrics.New()
		doc, batch, err := publishers.BuildDocument(links, publishers.BuildOptions{
			Generator: newGenerator(cfg),
			Mode:      mode,
			Detail:    detail,
			Format:    format,
			Dedupe:    convertDedupe || cfg.Generator.Dedupe,
			Decorate:  decorate,
			Metrics:   m,
		})
		if convertReport {
			m.PrintReport(os.Stderr)
		}
		if err != nil {
			if errors.Is(err, node.ErrEmptyNodeList) {
				logger.Log.Fatalf("No usable proxy links (%d skipped)", batch.SkippedCount())
			}
			logger.Log.Fatalf("Conversion failed: %v", err)
		}
		if batch.SkippedCount() > 0 {
			logger.Log.Warnf("⚠️ Skipped %d of %d links", batch.SkippedCount(), batch.SkippedCount()+len(batch.Nodes))
		}

		if convertOutput == "" || convertOutput == "-" {
			err = (&stdout.Publisher{}).Publish(cmd.Context(), doc, nil)
		} else {
			err = (&file.Publisher{}).Publish(cmd.Context(), doc, map[string]interface{}{"path": convertOutput})
		}
		if err != nil {
			logger.Log.Fatalf("Error writing output: %v", err)
		}
		logger.Log.Infof("✅ Wrote %d proxies", doc.Nodes)
	},
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func init() {
	convertCmd.Flags().StringArrayVar(&convertSubs, "sub", nil, "Subscription URL to fetch (repeatable)")
	convertCmd.Flags().StringArrayVar(&convertLinks, "link", nil, "Share-link to include (repeatable)")
	convertCmd.Flags().StringVar(&convertMode, "mode", "", "whitelist or blacklist (default from config)")
	convertCmd.Flags().StringVar(&convertDetail, "detail", "", "full or simple (default from config)")
	convertCmd.Flags().StringVar(&convertFormat, "format", "yaml", "yaml, links or base64")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Write to file instead of stdout")
	convertCmd.Flags().BoolVar(&convertGeoIP, "geoip", false, "Prefix node names with country flags")
	convertCmd.Flags().BoolVar(&convertDedupe, "dedupe", false, "Drop links that point at the same endpoint")
	convertCmd.Flags().BoolVar(&convertReport, "report", false, "Print a conversion report to stderr")
	rootCmd.AddCommand(convertCmd)
}
