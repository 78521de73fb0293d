package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mchmarny/cargoscan/pkg/data"
	"github.com/mchmarny/cargoscan/pkg/tabular"
	"github.com/urfave/cli/v3"
)

const (
	flagExportType = "type"
	flagOut        = "out"
)

func newExportCmd() *cli.Command {
	return &cli.Command{
		Name:            "export",
		Usage:           "Export a stored analysis to Excel, CSV or PDF",
		HideHelpCommand: true,
		Action:          cmdExport,
		Flags: []cli.Flag{
			idFlag(),
			&cli.StringFlag{
				Name:  flagExportType,
				Usage: "Export file type [xlsx, csv, pdf], ignored when --out has a known extension",
				Value: string(tabular.FormatXLSX),
			},
			&cli.StringFlag{
				Name:  flagOut,
				Usage: "Path of the export file (default: <source>-suspects.<type>)",
			},
		},
	}
}

func cmdExport(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String(flagID)
	a, err := getAnalysis(getConfig(cmd).DB, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return fmt.Errorf("analysis %q not found", id)
		}
		return fmt.Errorf("getting analysis: %w", err)
	}

	out := cmd.String(flagOut)
	if _, ferr := tabular.FormatFromName(out); out == "" || ferr != nil {
		format, ok := exportFormats[strings.ToLower(cmd.String(flagExportType))]
		if !ok {
			return fmt.Errorf("unsupported export type: %s", cmd.String(flagExportType))
		}
		out = exportFileName(a, out, format)
	}

	if err := tabular.ExportFile(out, a.Result); err != nil {
		return fmt.Errorf("exporting analysis: %w", err)
	}

	slog.Info("export written", "id", a.ID, "path", out)
	return nil
}

// exportFileName builds the export path from the analysis source name.
func exportFileName(a *data.Analysis, base string, format tabular.Format) string {
	if base == "" {
		src := strings.TrimSuffix(filepath.Base(a.Source), filepath.Ext(a.Source))
		if src == "" || src == "." {
			src = a.ID
		}
		base = src + "-suspects"
	}
	return base + "." + string(format)
}
