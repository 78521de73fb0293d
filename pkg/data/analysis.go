package data

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/cargoscan/pkg/manifest"
	"github.com/pkg/errors"
)

const (
	analysisListLimitDefault = 20

	insertAnalysisSQL = `INSERT INTO analysis (id, source, created_at, total_records,
		top_n, selected, anomalies, max_score, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	insertSuspectSQL = `INSERT INTO suspect (analysis_id, rank, row_num, score,
		weight, usd_value, description, origin_country)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectAnalysisSQL = `SELECT id, source, created_at, result
		FROM analysis
		WHERE id = ?
	`

	selectLatestAnalysisSQL = `SELECT id, source, created_at, result
		FROM analysis
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`

	selectAnalysesSQL = `SELECT id, source, created_at, total_records, top_n,
		selected, anomalies, max_score
		FROM analysis
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	deleteSuspectsSQL = `DELETE FROM suspect WHERE analysis_id = ?`
	deleteAnalysisSQL = `DELETE FROM analysis WHERE id = ?`
)

// Analysis is a persisted RankedResult. The id and timestamp live here so the
// engine output itself stays deterministic.
type Analysis struct {
	ID        string                 `json:"id" yaml:"id"`
	Source    string                 `json:"source" yaml:"source"`
	CreatedAt time.Time              `json:"created_at" yaml:"createdAt"`
	Result    *manifest.RankedResult `json:"result" yaml:"result"`
}

// AnalysisSummary is one line of the analysis history.
type AnalysisSummary struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	CreatedAt    string `json:"created_at" yaml:"createdAt"`
	TotalRecords int    `json:"total_records" yaml:"totalRecords"`
	TopN         int    `json:"top_n" yaml:"topN"`
	Selected     int    `json:"selected" yaml:"selected"`
	Anomalies    int    `json:"anomalies" yaml:"anomalies"`
	MaxScore     int    `json:"max_score" yaml:"maxScore"`
}

// NewAnalysis wraps res with a new id and the current time.
func NewAnalysis(source string, res *manifest.RankedResult) *Analysis {
	return &Analysis{
		ID:        uuid.NewString(),
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Result:    res,
	}
}

func maxScore(res *manifest.RankedResult) int {
	if len(res.Records) == 0 {
		return 0
	}
	// records are ranked, the first carries the highest score
	return res.Records[0].SuspicionScore
}

// SaveAnalysis stores the analysis and its ranked suspects in one transaction.
func SaveAnalysis(db *sql.DB, a *Analysis) error {
	if db == nil {
		return errDBNotInitialized
	}
	if a == nil || a.Result == nil {
		return errors.New("analysis with result required")
	}
	if a.ID == "" {
		return errors.New("analysis id required")
	}

	b, err := json.Marshal(a.Result)
	if err != nil {
		return errors.Wrap(err, "failed to marshal result")
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	res := a.Result
	if _, err = tx.Exec(insertAnalysisSQL, a.ID, a.Source, a.CreatedAt.UTC().Format(timeFormat),
		res.TotalRecords, res.TopN, len(res.Records), len(res.Anomalies), maxScore(res), string(b)); err != nil {
		rollbackTransaction(tx)
		return errors.Wrapf(err, "failed to insert analysis: %s", a.ID)
	}

	stmt, err := tx.Prepare(insertSuspectSQL)
	if err != nil {
		rollbackTransaction(tx)
		return errors.Wrap(err, "failed to prepare suspect statement")
	}
	defer stmt.Close()

	for i, r := range res.Records {
		if _, err = stmt.Exec(a.ID, i+1, r.Row, r.SuspicionScore, r.Weight, r.USDValue,
			r.Description, r.OriginCountry); err != nil {
			rollbackTransaction(tx)
			return errors.Wrapf(err, "failed to insert suspect row: %d", r.Row)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	slog.Debug("analysis saved", "id", a.ID, "source", a.Source, "suspects", len(res.Records))
	return nil
}

func rollbackTransaction(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		slog.Error("failed to rollback transaction", "error", err)
	}
}

// GetAnalysis returns the analysis with the given id or ErrNotFound.
func GetAnalysis(db *sql.DB, id string) (*Analysis, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if id == "" {
		return nil, errors.New("analysis id required")
	}
	return scanAnalysis(db.QueryRow(selectAnalysisSQL, id))
}

// GetLatestAnalysis returns the most recently created analysis or ErrNotFound.
func GetLatestAnalysis(db *sql.DB) (*Analysis, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	return scanAnalysis(db.QueryRow(selectLatestAnalysisSQL))
}

func scanAnalysis(row *sql.Row) (*Analysis, error) {
	var (
		a       Analysis
		created string
		result  string
	)
	if err := row.Scan(&a.ID, &a.Source, &created, &result); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to scan analysis")
	}

	t, err := time.Parse(timeFormat, created)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid created_at: %s", created)
	}
	a.CreatedAt = t

	a.Result = &manifest.RankedResult{}
	if err := json.Unmarshal([]byte(result), a.Result); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal result of analysis: %s", a.ID)
	}
	return &a, nil
}

// ListAnalyses returns the newest analyses first.
func ListAnalyses(db *sql.DB, limit int) ([]*AnalysisSummary, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = analysisListLimitDefault
	}

	rows, err := db.Query(selectAnalysesSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query analyses")
	}
	defer rows.Close()

	list := make([]*AnalysisSummary, 0)
	for rows.Next() {
		s := &AnalysisSummary{}
		if err := rows.Scan(&s.ID, &s.Source, &s.CreatedAt, &s.TotalRecords, &s.TopN,
			&s.Selected, &s.Anomalies, &s.MaxScore); err != nil {
			return nil, errors.Wrap(err, "failed to scan analysis summary")
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate analyses")
	}
	return list, nil
}

// DeleteAnalysis removes an analysis and its suspects. Missing ids return ErrNotFound.
func DeleteAnalysis(db *sql.DB, id string) error {
	if db == nil {
		return errDBNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if _, err = tx.Exec(deleteSuspectsSQL, id); err != nil {
		rollbackTransaction(tx)
		return errors.Wrapf(err, "failed to delete suspects of analysis: %s", id)
	}

	res, err := tx.Exec(deleteAnalysisSQL, id)
	if err != nil {
		rollbackTransaction(tx)
		return errors.Wrapf(err, "failed to delete analysis: %s", id)
	}

	n, err := res.RowsAffected()
	if err != nil {
		rollbackTransaction(tx)
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		rollbackTransaction(tx)
		return ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}
