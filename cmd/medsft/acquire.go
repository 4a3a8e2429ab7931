// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/medsft/internal/acquire"
	"github.com/pdiddy/medsft/internal/entrez"
	"github.com/pdiddy/medsft/internal/secrets"
	"github.com/pdiddy/medsft/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "medsft/0.1"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Download PubMed records published in a date window",
	Long: `Acquire searches PubMed for records published between --start-date and
--end-date, fetches them in batches, keeps the ones that carry an abstract,
and writes the normalized records to --output-json. A run manifest is
written next to the output file.

Dates are passed to PubMed verbatim, typically in YYYY/MM/DD form.`,
	RunE: runAcquire,
}

func init() {
	acquireCmd.Flags().String("output-json", "", "path of the JSON file to write (required)")
	acquireCmd.Flags().String("start-date", "", "first publication date, e.g. 2024/01/01 (required)")
	acquireCmd.Flags().String("end-date", "", "last publication date, e.g. 2024/12/31 (required)")
	acquireCmd.Flags().Int("num-articles", acquire.DefaultMaxArticles, "maximum number of records to keep")
	acquireCmd.Flags().Int("batch-size", acquire.DefaultBatchSize, "identifiers per fetch request")
	acquireCmd.Flags().String("email", "", "contact email sent to NCBI (default: .secrets/ncbi-email)")
	acquireCmd.Flags().String("tool", "", "tool name sent to NCBI (default medsft)")
	acquireCmd.Flags().String("base-url", "", "E-utilities base URL")
	acquireCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	acquireCmd.Flags().Float64("requests-per-second", 0, "E-utilities request rate (default 3, negative disables)")

	for _, name := range []string{"output-json", "start-date", "end-date"} {
		if err := acquireCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	bindFlag(acquireCmd, "entrez.email", "email")
	bindFlag(acquireCmd, "entrez.tool", "tool")
	bindFlag(acquireCmd, "entrez.base_url", "base-url")
	bindFlag(acquireCmd, "acquire.batch_size", "batch-size")
	bindFlag(acquireCmd, "http.timeout", "timeout")
	bindFlag(acquireCmd, "entrez.requests_per_second", "requests-per-second")

	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output-json")
	startDate, _ := cmd.Flags().GetString("start-date")
	endDate, _ := cmd.Flags().GetString("end-date")
	numArticles, _ := cmd.Flags().GetInt("num-articles")
	if numArticles <= 0 {
		return fmt.Errorf("--num-articles must be positive, got %d", numArticles)
	}

	timeout := viper.GetDuration("http.timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	ecfg := types.EntrezConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		BaseURL: viper.GetString("entrez.base_url"),
		Email:   secrets.Resolve(loadedSecrets, secrets.NCBIEmail, viper.GetString("entrez.email")),
		Tool:    secrets.Resolve(loadedSecrets, secrets.NCBITool, viper.GetString("entrez.tool")),

		RequestsPerSecond: viper.GetFloat64("entrez.requests_per_second"),
	}
	if ecfg.Email == "" {
		slog.Warn("no contact email configured; set --email or .secrets/ncbi-email")
	}

	cfg := types.AcquisitionConfig{
		StartDate:   startDate,
		EndDate:     endDate,
		MaxArticles: numArticles,
		BatchSize:   viper.GetInt("acquire.batch_size"),
		OutputPath:  output,
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	client := entrez.NewClient(&http.Client{Timeout: ecfg.Timeout}, ecfg)
	pipeline := acquire.NewPipeline(client, cfg, slog.Default())

	result, err := pipeline.Run(cmd.Context())
	if err != nil {
		if errors.Is(err, entrez.ErrSourceUnavailable) {
			return fmt.Errorf("PubMed could not be reached, no output written: %w", err)
		}
		return err
	}

	success(cmd.OutOrStdout(), "Saved %d articles with abstracts to %s", len(result.Records), output)
	if result.Skipped > 0 {
		notice(cmd.OutOrStdout(), "Skipped %d records without an abstract", result.Skipped)
	}
	return nil
}
