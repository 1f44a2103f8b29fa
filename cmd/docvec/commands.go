package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/docvec"
	"github.com/poiesic/docvec/ai/mock"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/ingestion"
	"github.com/poiesic/docvec/source"
	"github.com/poiesic/docvec/storage/badger"
)

const defaultBusinessID = "social"

func businessIDFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "business-id",
		Aliases: []string{"n"},
		Usage:   "Business ID, used as the index namespace",
		Value:   defaultBusinessID,
		EnvVars: []string{"BUSINESS_ID"},
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "Index files, directories or s3:// URLs (default: current directory)",
		ArgsUsage: "[paths...]",
		Action:    indexAction,
		Flags: append([]cli.Flag{
			businessIDFlag(),
			&cli.BoolFlag{Name: "purge", Usage: "Delete all vectors in the namespace before indexing"},
			&cli.StringFlag{Name: "purge-doc-type", Usage: "Delete only vectors of this doc type before indexing"},
			&cli.BoolFlag{Name: "force", Usage: "Re-index files that have not changed"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Chunk and count without calling the embedding service or the index"},
			&cli.StringSliceFlag{Name: "pattern", Usage: "File pattern for directory inputs (repeatable)", Value: cli.NewStringSlice(source.DefaultPatterns...)},
		}, serviceFlags()...),
	}
}

func defaultsCommand() *cli.Command {
	return &cli.Command{
		Name:      "defaults",
		Usage:     "Index the canonical document set found in a directory",
		ArgsUsage: "[dir]",
		Action:    defaultsAction,
		Flags: append([]cli.Flag{
			businessIDFlag(),
			&cli.StringFlag{Name: "purge", Usage: "Delete all vectors in the namespace first (1, true or yes)", Value: "true", EnvVars: []string{"PURGE_NAMESPACE"}},
		}, serviceFlags()...),
	}
}

func purgeCommand() *cli.Command {
	return &cli.Command{
		Name:   "purge",
		Usage:  "Delete a namespace, or one doc type in it",
		Action: purgeAction,
		Flags: append([]cli.Flag{
			businessIDFlag(),
			&cli.StringFlag{Name: "doc-type", Usage: "Only delete vectors of this doc type"},
		}, serviceFlags()...),
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "List the files recorded in the manifest for a namespace",
		Action: statusAction,
		Flags: []cli.Flag{
			businessIDFlag(),
			&cli.StringFlag{Name: "manifest", Usage: "Manifest directory", EnvVars: []string{"MANIFEST_DIR"}},
		},
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func openService(ctx context.Context, c *cli.Context, dryRun bool) (*docvec.Service, error) {
	cfg := configFromFlags(c)
	opts := []docvec.ServiceOption{
		docvec.WithLogger(slog.Default()),
		docvec.WithProgressWriter(os.Stderr),
	}
	if dryRun {
		cfg.Index.Backend = docvec.BackendMemory
		cfg.ManifestDir = ""
		embedder := mock.NewMockEmbedder()
		embedder.Dimension = cfg.AI.Dimension
		opts = append(opts, docvec.WithEmbedder(embedder))
	}
	return docvec.Open(ctx, cfg, opts...)
}

func indexAction(c *cli.Context) error {
	inputs := c.Args().Slice()
	if len(inputs) == 0 {
		inputs = []string{"."}
	}
	return runIndex(c, ingestion.Request{
		Inputs:       inputs,
		Namespace:    c.String("business-id"),
		Purge:        c.Bool("purge"),
		PurgeDocType: core.DocType(c.String("purge-doc-type")),
		Force:        c.Bool("force"),
		Patterns:     c.StringSlice("pattern"),
	}, c.Bool("dry-run"))
}

func defaultsAction(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		dir = "."
	}
	files, err := source.Gather(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Indexing %d default files from %s\n", len(files), dir)
	return runIndex(c, ingestion.Request{
		Inputs:    files,
		Namespace: c.String("business-id"),
		Purge:     parseTruthy(c.String("purge")),
	}, false)
}

// parseTruthy reports whether s is one of 1, true or yes, ignoring case.
// Anything else, including an empty string, is false.
func parseTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func runIndex(c *cli.Context, req ingestion.Request, dryRun bool) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx, c, dryRun)
	if err != nil {
		return err
	}
	defer svc.Close()

	report, err := svc.Index(ctx, req)
	if report != nil {
		printReport(c.App.Writer, report, dryRun)
	}
	if err != nil {
		return err
	}

	if err := svc.PushMetrics(ctx); err != nil {
		slog.Default().Warn("error pushing metrics", "err", err)
	}
	return nil
}

func printReport(w io.Writer, r *ingestion.Report, dryRun bool) {
	if dryRun {
		fmt.Fprintf(w, "Dry run: %d files, %d chunks would be indexed\n", r.FilesProcessed, r.RecordsBuilt)
		return
	}
	fmt.Fprintf(w, "Indexing complete. Total vectors upserted: %d\n", r.VectorsUpserted)
	fmt.Fprintf(w, "Run %s: %d files found, %d processed, %d skipped, %d failed in %s\n",
		r.RunID, r.FilesFound, r.FilesProcessed, r.FilesSkipped, r.FilesFailed, r.Duration.Round(time.Millisecond))
	for _, f := range r.Files {
		if f.Status != ingestion.FileProcessed {
			fmt.Fprintf(w, "  %s %s: %s\n", f.Status, f.Path, f.Reason)
		}
	}
	if r.VectorsFailed > 0 {
		fmt.Fprintf(w, "%d vectors failed: %v\n", r.VectorsFailed, r.FailedIDs)
	}
}

func purgeAction(c *cli.Context) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx, c, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	namespace := c.String("business-id")
	docType := core.DocType(c.String("doc-type"))
	if err := svc.Purge(ctx, namespace, docType); err != nil {
		return err
	}
	if docType != "" {
		fmt.Fprintf(c.App.Writer, "Purged doc type %q in namespace %q\n", docType, namespace)
	} else {
		fmt.Fprintf(c.App.Writer, "Purged namespace %q\n", namespace)
	}
	return nil
}

func statusAction(c *cli.Context) error {
	if c.String("manifest") == "" {
		return fmt.Errorf("status needs a manifest: set --manifest or MANIFEST_DIR")
	}

	manifest, err := badger.OpenManifest(c.String("manifest"))
	if err != nil {
		return err
	}
	defer manifest.Close()

	entries, err := manifest.List(c.Context, c.String("business-id"))
	if err != nil {
		return err
	}
	return printStatus(c.App.Writer, entries)
}

func printStatus(w io.Writer, entries []*core.FileState) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tDOC TYPE\tVECTORS\tINDEXED AT\tRUN")
	for _, e := range entries {
		docType := string(e.DocType)
		if docType == "" {
			docType = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			e.Path, docType, len(e.VectorIDs), e.IndexedAt.Format("2006-01-02 15:04:05"), e.RunID)
	}
	return tw.Flush()
}
