package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mchmarny/cargoscan/pkg/data"
	"github.com/mchmarny/cargoscan/pkg/manifest"
	"github.com/mchmarny/cargoscan/pkg/metrics"
	"github.com/mchmarny/cargoscan/pkg/net"
	"github.com/mchmarny/cargoscan/pkg/tabular"
	"github.com/urfave/cli/v3"
)

const (
	flagFile           = "file"
	flagURL            = "url"
	flagTop            = "top"
	flagWorkers        = "workers"
	flagValueDensity   = "value-density"
	flagAbnormalWeight = "abnormal-weight"
	flagXLSXOut        = "xlsx"
	flagCSVOut         = "csv"
	flagPDFOut         = "pdf"
	flagNoSave         = "no-save"
)

// engineFlags override the engine section of the config file.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    flagTop,
			Usage:   "Number of records to keep (default: from config)",
			Sources: cli.EnvVars(envPrefix + "TOP"),
		},
		&cli.IntFlag{
			Name:    flagWorkers,
			Usage:   "Number of concurrent record evaluators (0 or 1: sequential)",
			Sources: cli.EnvVars(envPrefix + "WORKERS"),
		},
		&cli.FloatFlag{
			Name:    flagValueDensity,
			Usage:   "USD per kg below which a heavy shipment is flagged",
			Sources: cli.EnvVars(envPrefix + "VALUE_DENSITY"),
		},
		&cli.FloatFlag{
			Name:    flagAbnormalWeight,
			Usage:   "Weight above which a shipment is flagged",
			Sources: cli.EnvVars(envPrefix + "ABNORMAL_WEIGHT"),
		},
	}
}

func newAnalyzeCmd() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    flagFile,
			Aliases: []string{"f"},
			Usage:   "Path to the manifest file (xlsx, csv, tsv)",
		},
		&cli.StringFlag{
			Name:  flagURL,
			Usage: "URL of the manifest file to download and analyze",
		},
	}
	flags = append(flags, engineFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:  flagXLSXOut,
			Usage: "Also write the suspects to this Excel file",
		},
		&cli.StringFlag{
			Name:  flagCSVOut,
			Usage: "Also write the suspects to this CSV file",
		},
		&cli.StringFlag{
			Name:  flagPDFOut,
			Usage: "Also write the suspects to this PDF file",
		},
		&cli.BoolFlag{
			Name:  flagNoSave,
			Usage: "Do not store the analysis in the local database",
		},
	)

	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"a"},
		Usage:   "Score a cargo manifest and print the most suspicious records",
		UsageText: `cargoscan analyze --file manifest.xlsx                       # analyze and store a local file
   cargoscan analyze --file manifest.csv --top 5 --pdf top.pdf   # keep 5 records and render a PDF
   cargoscan analyze --url https://example.com/manifest.xlsx     # download and analyze`,
		Action: cmdAnalyze,
		Flags:  flags,
	}
}

func engineConfig(cmd *cli.Command, base manifest.Config) manifest.Config {
	if cmd.IsSet(flagTop) {
		base.TopN = cmd.Int(flagTop)
	}
	if cmd.IsSet(flagWorkers) {
		base.Workers = cmd.Int(flagWorkers)
	}
	if cmd.IsSet(flagValueDensity) {
		base.ValueDensityThreshold = cmd.Float(flagValueDensity)
	}
	if cmd.IsSet(flagAbnormalWeight) {
		base.AbnormalWeightThreshold = cmd.Float(flagAbnormalWeight)
	}
	return base
}

func cmdAnalyze(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	file := cmd.String(flagFile)
	u := cmd.String(flagURL)
	if (file == "") == (u == "") {
		return errors.New("either --file or --url is required")
	}

	var (
		t   *manifest.Table
		err error
	)
	if u != "" {
		t, err = readRemote(ctx, u)
	} else {
		t, err = tabular.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}

	analyzer := manifest.NewAnalyzer(engineConfig(cmd, cfg.Conf.Engine))
	a, err := runAnalysis(cfg.DB, analyzer, t, !cmd.Bool(flagNoSave))
	if err != nil {
		return err
	}

	for _, out := range []string{
		cmd.String(flagXLSXOut),
		cmd.String(flagCSVOut),
		cmd.String(flagPDFOut),
	} {
		if out == "" {
			continue
		}
		if err := tabular.ExportFile(out, a.Result); err != nil {
			return fmt.Errorf("exporting %s: %w", out, err)
		}
		slog.Info("export written", "path", out)
	}

	return encode(cmd, a)
}

// runAnalysis scores t and optionally stores the result.
func runAnalysis(db *sql.DB, analyzer *manifest.Analyzer, t *manifest.Table, save bool) (*data.Analysis, error) {
	start := time.Now()
	res, err := analyzer.Analyze(t)
	metrics.Observe(res, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	a := data.NewAnalysis(t.Source, res)
	if save {
		if err := data.SaveAnalysis(db, a); err != nil {
			return nil, fmt.Errorf("saving analysis: %w", err)
		}
	}

	slog.Info("manifest analyzed",
		"id", a.ID,
		"source", a.Source,
		"records", res.TotalRecords,
		"selected", len(res.Records),
		"anomalies", len(res.Anomalies),
		"saved", save,
	)
	return a, nil
}

func readRemote(ctx context.Context, u string) (*manifest.Table, error) {
	dir, err := os.MkdirTemp("", appName+"-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "manifest")
	name, err := net.Download(ctx, u, path)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", u, err)
	}
	slog.Debug("manifest downloaded", "url", u, "name", name)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening downloaded manifest: %w", err)
	}
	defer f.Close()

	return tabular.Read(f, name)
}
