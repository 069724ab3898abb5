package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/readlater/internal/config"
	"github.com/mrlokans/readlater/internal/entrypoint"
	"github.com/mrlokans/readlater/internal/exporters"
)

// ExportCommand writes every saved article as Markdown, either into a
// directory or into a single ZIP archive.
type ExportCommand struct {
	OutputDir    string
	ZipPath      string
	DatabasePath string

	Output io.Writer
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{Output: os.Stdout}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)

	fs.StringVar(&cmd.OutputDir, "output", "", "Directory to write one Markdown file per article into")
	fs.StringVar(&cmd.ZipPath, "zip", "", "Write a ZIP archive of the Markdown files to this path instead")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export (-output <dir> | -zip <file>) [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export saved articles as Markdown notes with YAML frontmatter.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s export -output ~/Notes/ReadLater\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s export -zip readlater.zip\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if (cmd.OutputDir == "") == (cmd.ZipPath == "") {
		return fmt.Errorf("exactly one of -output or -zip is required")
	}

	return nil
}

func (cmd *ExportCommand) Run() error {
	out := cmd.Output
	if out == nil {
		out = os.Stdout
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	if _, err := os.Stat(absDBPath); os.IsNotExist(err) {
		return fmt.Errorf("database not found: %s", absDBPath)
	}

	cfg := config.NewConfig()
	cfg.Database.Path = absDBPath

	app, err := entrypoint.NewApp(cfg, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	var result exporters.ExportResult
	if cmd.ZipPath != "" {
		result, err = cmd.writeZip(ctx, app.Exporter)
	} else {
		result, err = app.Exporter.ExportToDir(ctx, cmd.OutputDir)
	}
	if err != nil {
		return fmt.Errorf("failed to export markdown: %w", err)
	}

	fmt.Fprintf(out, "Exported %d articles to %s\n", result.ArticlesProcessed, result.Destination)
	if result.ArticlesFailed > 0 {
		fmt.Fprintf(out, "%d articles failed to export\n", result.ArticlesFailed)
	}
	return nil
}

func (cmd *ExportCommand) writeZip(ctx context.Context, exporter *exporters.MarkdownExporter) (exporters.ExportResult, error) {
	f, err := os.Create(cmd.ZipPath)
	if err != nil {
		return exporters.ExportResult{}, err
	}

	result, err := exporter.WriteZip(ctx, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(cmd.ZipPath)
		return exporters.ExportResult{}, err
	}
	result.Destination = cmd.ZipPath
	return result, nil
}
