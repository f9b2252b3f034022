package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"social-insight/internal/bootstrap"
	"social-insight/internal/export"
	"social-insight/internal/linkinput"
	"social-insight/internal/records"
	"social-insight/internal/shared/config"
	localstore "social-insight/internal/shared/storage/object/local"
	"social-insight/internal/shared/telemetry"
)

type options struct {
	file     string
	out      string
	sample   bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "analyze [urls...]",
		Short: "Analyze social profile links and export the report",
		Long: `Analyze runs every link through the configured model one at a time, prints a
summary table and writes social_analysis_report_<date>.xlsx into --out.

Links come from arguments, from --file (newline or comma separated) or from --sample.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read links from a file")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "directory for the xlsx report")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "analyze the sample links")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	return cmd
}

func collectURLs(opts *options, args []string) ([]string, error) {
	var urls []string
	if opts.sample {
		urls = append(urls, linkinput.Samples()...)
	}
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return nil, fmt.Errorf("read links file: %w", err)
		}
		urls = append(urls, linkinput.Parse(string(data))...)
	}
	urls = append(urls, linkinput.Parse(strings.Join(args, "\n"))...)
	if len(urls) == 0 {
		return nil, errors.New("no links given: pass urls, --file or --sample")
	}
	return urls, nil
}

func run(ctx context.Context, w io.Writer, opts *options, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	telemetry.Configure(os.Stderr, opts.logLevel)
	defer telemetry.Sync()

	urls, err := collectURLs(opts, args)
	if err != nil {
		return err
	}

	// Reports land directly in --out under their dated name.
	cfg.ObjectStoreType = "local"
	cfg.LocalStoreDir = opts.out
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return err
	}
	app.Insights.Archive = localstore.NewPlain(opts.out)
	app.Insights.Namespace = ""

	return runBatch(ctx, w, app, urls)
}

func runBatch(ctx context.Context, w io.Writer, app *bootstrap.App, urls []string) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = app.Batches.Run(runCtx)
	}()

	if _, _, err := app.Insights.SubmitURLs(ctx, urls); err != nil {
		return err
	}
	fmt.Fprintf(w, "analyzing %d link(s)\n", len(urls))
	if err := app.Batches.Wait(ctx); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	cancel()
	<-done

	printSummary(w, app.Insights.Snapshot())

	rep, err := app.Insights.ExportCompleted(ctx)
	if err != nil {
		if notice := export.Notice(err); notice != "" {
			fmt.Fprintln(w, notice)
			return nil
		}
		return err
	}
	if rep.ArchiveKey == "" {
		return errors.New("report was not written")
	}
	fmt.Fprintf(w, "wrote %d row(s) to %s\n", rep.Rows, rep.ArchiveKey)
	return nil
}

func printSummary(w io.Writer, recs []records.Record) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tURL\tACCOUNT\tFOLLOWERS\tAVG VIEWS\tGENDER")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Status, r.URL, r.AccountName, r.FollowerCount, r.AvgViewsRecent, r.GenderRatio)
	}
	_ = tw.Flush()
}
