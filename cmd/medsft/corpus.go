// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medsft/internal/corpus"
	"github.com/pdiddy/medsft/pkg/types"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the local corpus index (ingest, search, export)",
	Long: `Corpus keeps acquired records in a local SQLite database. Use
subcommands to ingest acquisition output files, search them, or export
them back to JSON or YAML. Acquisition never reads the corpus.`,
}

// --- ingest subcommand ---

var corpusIngestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Load acquisition JSON files into the corpus",
	Long: `Ingest reads one or more acquisition output files and stores their
records. When a run manifest sits next to a file, its run ID is reused so
re-ingesting the same run replaces it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCorpusIngest,
}

func runCorpusIngest(cmd *cobra.Command, args []string) error {
	store, err := corpus.NewStore(corpusConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	for _, path := range args {
		run, err := store.IngestFile(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		success(cmd.OutOrStdout(), "Ingested %d records from %s (run %s)", run.RecordCount, path, run.ID)
	}
	return nil
}

// --- search subcommand ---

var corpusSearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search stored records by text, year, or run",
	RunE:  runCorpusSearch,
}

func runCorpusSearch(cmd *cobra.Command, args []string) error {
	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --year, or --run")
	}

	store, err := corpus.NewStore(corpusConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(cmd.OutOrStdout(), entries, jsonOutput)
}

func formatSearchOutput(w io.Writer, entries []corpus.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	table := newTable(w)
	table.Header([]string{"Rank", "Date", "Title", "Run"})
	for i, e := range entries {
		title := []rune(e.ArticleTitle)
		if len(title) > 60 {
			title = append(title[:57], []rune("...")...)
		}
		run := e.RunID
		if len(run) > 8 {
			run = run[:8]
		}
		d := e.PubDate
		if err := table.Append([]string{
			strconv.Itoa(i + 1), d.Year + "-" + d.Month + "-" + d.Day, string(title), run,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

// --- export subcommand ---

var corpusExportCmd = &cobra.Command{
	Use:   "export [text]",
	Short: "Export stored records as JSON or YAML",
	Long: `Export writes stored records matching the optional filters. JSON output
uses the acquisition file format, so it can be passed to "medsft sft".`,
	RunE: runCorpusExport,
}

func runCorpusExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q: use json or yaml", format)
	}

	opts := queryOptsFromFlags(cmd, args)
	if opts.MaxResults == 0 {
		opts.MaxResults = -1
	}

	store, err := corpus.NewStore(corpusConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	export := func(w io.Writer) error {
		if format == "yaml" {
			return store.ExportYAML(cmd.Context(), w, opts)
		}
		return store.ExportJSON(cmd.Context(), w, opts)
	}

	if output == "" {
		return export(cmd.OutOrStdout())
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	return writeAndClose(f, export)
}

// writeAndClose runs write against wc and closes it. A close error is
// returned when write succeeded.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	err := write(wc)
	if cerr := wc.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing output: %w", cerr)
	}
	return err
}

// --- runs subcommand ---

var corpusRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List ingested runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := corpus.NewStore(corpusConfig(cmd))
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Runs(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs ingested.")
			return nil
		}
		table := newTable(w)
		table.Header([]string{"Run", "Ingested", "Records", "Source"})
		for _, r := range runs {
			if err := table.Append([]string{
				r.ID, r.IngestedAt.Format("2006-01-02 15:04"), strconv.Itoa(r.RecordCount), r.Source,
			}); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

// --- shared helpers ---

func corpusConfig(cmd *cobra.Command) types.CorpusConfig {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = corpus.DefaultDBPath
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return types.CorpusConfig{
		DBPath:     dbPath,
		MaxResults: maxResults,
	}
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) corpus.QueryOptions {
	year, _ := cmd.Flags().GetString("year")
	runID, _ := cmd.Flags().GetString("run")
	limit, _ := cmd.Flags().GetInt("limit")

	return corpus.QueryOptions{
		Text:       strings.Join(args, " "),
		Year:       year,
		RunID:      runID,
		MaxResults: limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	corpusCmd.PersistentFlags().String("db", corpus.DefaultDBPath, "SQLite corpus database")
	corpusCmd.PersistentFlags().Int("max-results", 20, "default maximum number of search results")

	for _, c := range []*cobra.Command{corpusSearchCmd, corpusExportCmd} {
		c.Flags().String("year", "", "filter by publication year")
		c.Flags().String("run", "", "filter by run ID")
		c.Flags().Int("limit", 0, "maximum results (0 = default, -1 = no limit)")
	}
	corpusSearchCmd.Flags().Bool("json", false, "output results as JSON")
	corpusExportCmd.Flags().String("format", "json", "export format: json or yaml")
	corpusExportCmd.Flags().String("output", "", "write to file instead of stdout")

	corpusCmd.AddCommand(corpusIngestCmd, corpusSearchCmd, corpusExportCmd, corpusRunsCmd)
	rootCmd.AddCommand(corpusCmd)
}
