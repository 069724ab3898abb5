package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mrlokans/readlater/internal/config"
	"github.com/mrlokans/readlater/internal/entities"
	"github.com/mrlokans/readlater/internal/entrypoint"
	"github.com/mrlokans/readlater/internal/importers"
)

// ImportCommand imports a bookmark export file from the command line.
type ImportCommand struct {
	ExportPath   string
	DatabasePath string
	Verbose      bool
	DryRun       bool

	// Output receives progress and summary lines.
	Output io.Writer
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{Output: os.Stdout}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)

	fs.StringVar(&cmd.ExportPath, "file", "", "Path to the "+importers.ExportFilename+" export file (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every item as it settles")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Parse and validate the export without fetching anything")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fetch every link in a bookmark export and save a readable copy offline.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file ~/Downloads/%s\n", os.Args[0], importers.ExportFilename)
		fmt.Fprintf(os.Stderr, "  %s import -file %s -dry-run -verbose\n", os.Args[0], importers.ExportFilename)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ExportPath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	out := cmd.Output
	if out == nil {
		out = os.Stdout
	}

	fmt.Fprintln(out, "Bookmark Import")
	fmt.Fprintln(out, "===============")

	file, err := os.Open(cmd.ExportPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("export file not found: %s", cmd.ExportPath)
	}
	if err != nil {
		return fmt.Errorf("failed to open export file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(out, "File: %s\n", cmd.ExportPath)
	filename := filepath.Base(cmd.ExportPath)

	if cmd.DryRun {
		return cmd.preview(out, filename, file)
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	cfg := config.NewConfig()
	cfg.Database.Path = absDBPath

	fmt.Fprintf(out, "Database: %s\n", absDBPath)

	app, err := entrypoint.NewApp(cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job, items, err := app.Pipeline.Prepare(ctx, filename, file)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d links, fetching...\n", len(items))

	var progress importers.ProgressFunc
	if cmd.Verbose {
		progress = func(processed, total int, item importers.Bookmark, status entities.FetchStatus) {
			fmt.Fprintf(out, "  [%d/%d] %-7s %s\n", processed, total, status, item.URL)
		}
	}

	result, err := app.Pipeline.Run(ctx, job.ID, items, progress)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintln(out, "\n=== Import Summary ===")
	fmt.Fprintf(out, "Job: %s\n", job.ID)
	fmt.Fprintf(out, "Saved: %d/%d\n", result.Succeeded, result.Total)
	fmt.Fprintf(out, "Failed: %d\n", result.Failed)
	fmt.Fprintf(out, "Images cached: %d (%d failed)\n", result.AssetsCached, result.AssetsFailed)

	if result.Failed > 0 {
		failures, err := app.Jobs.ListFailures(ctx, job.ID)
		if err == nil {
			fmt.Fprintf(out, "\n%d links could not be saved:\n", len(failures))
			for _, f := range failures {
				fmt.Fprintf(out, "  [%s] %s: %s\n", f.FetchStatus, f.URL, f.Error)
			}
		}
	}

	fmt.Fprintln(out, "\nImport complete!")
	return nil
}

func (cmd *ImportCommand) preview(out io.Writer, filename string, r io.Reader) error {
	fmt.Fprintln(out, "DRY RUN MODE - Nothing will be fetched or saved")

	items, err := importers.ParseBookmarks(r)
	if err != nil {
		return err
	}
	if err := importers.ValidateExport(filename, items); err != nil {
		return err
	}

	fmt.Fprintf(out, "Found %d links\n", len(items))
	if cmd.Verbose {
		for i, item := range items {
			fmt.Fprintf(out, "%d. %s <%s>", i+1, item.Title, item.URL)
			if len(item.Tags) > 0 {
				fmt.Fprintf(out, " %v", item.Tags)
			}
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out, "\nDry run complete. Use without -dry-run to import.")
	return nil
}
