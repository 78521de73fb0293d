package manifest

import (
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Analyzer scores manifests with a fixed configuration. It holds no mutable
// state and is safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an Analyzer with a sanitized copy of cfg.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg.Sanitize()}
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Analyze normalizes t, scores every record, ranks them and keeps the top N.
// The only error it returns is a *FormatError.
func (a *Analyzer) Analyze(t *Table) (*RankedResult, error) {
	ds, err := Normalize(t)
	if err != nil {
		return nil, err
	}

	a.scoreAll(ds.Records)

	ranked := Rank(ds.Records)
	top := Select(ranked, a.cfg.TopN)

	slog.Debug("manifest analyzed",
		"source", t.Source,
		"records", len(ds.Records),
		"selected", len(top),
		"anomalies", len(ds.Anomalies),
	)

	return &RankedResult{
		Columns:      ds.Columns,
		ExtraColumns: ds.ExtraColumns,
		TotalRecords: len(ds.Records),
		TopN:         a.cfg.TopN,
		Records:      top,
		Anomalies:    ds.Anomalies,
		RuleHits:     RuleHits(ds.Records),
	}, nil
}

func (a *Analyzer) scoreAll(records []*Record) {
	if a.cfg.Workers <= 1 {
		for _, r := range records {
			Score(r, &a.cfg)
		}
		return
	}

	// each goroutine touches only its own record
	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)
	for _, r := range records {
		g.Go(func() error {
			Score(r, &a.cfg)
			return nil
		})
	}
	_ = g.Wait()
}

// Analyze is a convenience for NewAnalyzer(cfg).Analyze(t).
func Analyze(t *Table, cfg Config) (*RankedResult, error) {
	return NewAnalyzer(cfg).Analyze(t)
}
