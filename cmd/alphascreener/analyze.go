package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/usecase"
)

type analyzeOptions struct {
	id      domain.ProjectIdentifier
	outDir  string
	notify  bool
	refresh bool
}

func analyzeCmd(flags *globalFlags) *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze <name>",
		Short: "Analyze one project and write JSON and Markdown reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.id.Name = args[0]
			application, cfg, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer application.Close()
			if opts.outDir == "" {
				opts.outDir = cfg.Analysis.OutputDir
			}

			out := cmd.OutOrStdout()
			result, err := application.Analyze(cmd.Context(), opts.id, usecase.RunOptions{
				Observer: printState(out),
				Notify:   opts.notify,
				Refresh:  opts.refresh,
			})
			if err != nil {
				return err
			}
			return writeReports(out, opts.outDir, opts.id.Name, result, time.Now())
		},
	}
	cmd.Flags().StringVar(&opts.id.DocsURL, "docs", "", "Documentation URL")
	cmd.Flags().StringVar(&opts.id.GitHubURL, "github", "", "GitHub repository URL")
	cmd.Flags().StringVar(&opts.id.Website, "website", "", "Project website URL")
	cmd.Flags().StringVar(&opts.id.Symbol, "symbol", "", "Token symbol")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "Directory for the report files")
	cmd.Flags().BoolVar(&opts.notify, "notify", false, "Publish a digest to Telegram")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "Ignore any cached analysis")
	return cmd
}

func printState(w io.Writer) func(context.Context, domain.AnalysisState) error {
	return func(_ context.Context, state domain.AnalysisState) error {
		fmt.Fprintf(w, "[%s] %s\n", state, state.Describe())
		return nil
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// writeReports stores <name>-<timestamp>.json and .md in dir.
func writeReports(w io.Writer, dir, name string, result domain.AnalysisResult, at time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	base := fmt.Sprintf("%s-%s", unsafeFileChars.ReplaceAllString(name, "_"), at.UTC().Format("20060102T150405Z"))

	files := map[string]string{
		base + ".json": result.JSON,
		base + ".md":   result.Markdown,
	}
	for file, body := range files {
		path := filepath.Join(dir, file)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	rating := result.Analysis.Rating
	if result.NoFunding {
		fmt.Fprintln(w, "no funding")
	}
	fmt.Fprintf(w, "%s: grade %s, composite %d/100\n", result.Analysis.ProjectID, rating.FinalGrade, rating.CompositeScore)
	fmt.Fprintf(w, "reports: %s\n", filepath.Join(dir, base+".{json,md}"))
	return nil
}
