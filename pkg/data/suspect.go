package data

import (
	"database/sql"

	"github.com/pkg/errors"
)

const (
	suspectListLimitDefault = 50

	selectSuspectsSQL = `SELECT s.analysis_id, a.source, a.created_at, s.rank, s.row_num,
			s.score, s.weight, s.usd_value, s.description, s.origin_country
		FROM suspect s
		JOIN analysis a ON s.analysis_id = a.id
		WHERE s.score >= ?
		ORDER BY s.score DESC, s.weight DESC, a.created_at DESC, s.rank ASC
		LIMIT ?
	`
)

// Suspect is a flagged record across all stored analyses.
type Suspect struct {
	AnalysisID    string  `json:"analysis_id" yaml:"analysisId"`
	Source        string  `json:"source" yaml:"source"`
	AnalyzedAt    string  `json:"analyzed_at" yaml:"analyzedAt"`
	Rank          int     `json:"rank" yaml:"rank"`
	Row           int     `json:"row" yaml:"row"`
	Score         int     `json:"score" yaml:"score"`
	Weight        float64 `json:"weight" yaml:"weight"`
	USDValue      float64 `json:"usd_value" yaml:"usdValue"`
	Description   string  `json:"description,omitempty" yaml:"description,omitempty"`
	OriginCountry string  `json:"origin_country,omitempty" yaml:"originCountry,omitempty"`
}

// ListSuspects returns stored suspects scoring at least minScore, highest first.
func ListSuspects(db *sql.DB, minScore, limit int) ([]*Suspect, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = suspectListLimitDefault
	}

	rows, err := db.Query(selectSuspectsSQL, minScore, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query suspects")
	}
	defer rows.Close()

	list := make([]*Suspect, 0)
	for rows.Next() {
		var (
			s       Suspect
			desc    sql.NullString
			country sql.NullString
		)
		if err := rows.Scan(&s.AnalysisID, &s.Source, &s.AnalyzedAt, &s.Rank, &s.Row,
			&s.Score, &s.Weight, &s.USDValue, &desc, &country); err != nil {
			return nil, errors.Wrap(err, "failed to scan suspect")
		}
		s.Description = desc.String
		s.OriginCountry = country.String
		list = append(list, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate suspects")
	}
	return list, nil
}
