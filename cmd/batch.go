package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/clinic-phone/internal/model"
)

var (
	batchInput       string
	batchConcurrency int
	batchEngine      string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Look up every clinic listed in a CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.Concurrency = batchConcurrency
		}

		queries, err := readQueries(batchInput)
		if err != nil {
			return err
		}

		env, err := initLookup(ctx, cfg, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		return processBatch(ctx, cmd.OutOrStdout(), queries, cfg.Batch.Concurrency, func(ctx context.Context, query string) *model.ResultRecord {
			return env.Orchestrator.SearchClinic(ctx, query, batchEngine)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV file with one clinic query in the first column (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel lookups (default from config)")
	batchCmd.Flags().StringVar(&batchEngine, "engine", "", "engine override: local or deepsearch")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// readQueries returns the non-empty first-column values of a CSV file. A
// leading "query" header row is skipped.
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open input")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var queries []string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "batch: read csv")
		}
		if len(rec) == 0 {
			continue
		}
		q := strings.TrimSpace(rec[0])
		if q == "" {
			continue
		}
		if len(queries) == 0 && strings.EqualFold(q, "query") {
			continue
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// lookupFunc runs one lookup.
type lookupFunc func(ctx context.Context, query string) *model.ResultRecord

// processBatch runs the lookups concurrently and prints one summary line per
// query in input order.
func processBatch(ctx context.Context, w io.Writer, queries []string, concurrency int, lookup lookupFunc) error {
	if len(queries) == 0 {
		zap.L().Info("batch: no queries found")
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("batch: processing",
		zap.Int("queries", len(queries)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]*model.ResultRecord, len(queries))
	var found atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, q := range queries {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := lookup(gctx, q)
			results[i] = res
			if res.Found() {
				found.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if res == nil {
			fmt.Fprintf(w, "%s\tskipped\n", queries[i])
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.Query, res.PhoneNumber, res.SourceLabel)
	}

	zap.L().Info("batch: complete",
		zap.Int("queries", len(queries)),
		zap.Int64("found", found.Load()),
	)
	return ctx.Err()
}
