package manifest

// Recognized column names. Matching is exact and case-sensitive.
const (
	ColumnDescription      = "Description"
	ColumnOriginCountry    = "Origin Country"
	ColumnImporterAddress1 = "Importer Address 1"
	ColumnImporterAddress2 = "Importer Address 2"
	ColumnWeight           = "Weight"
	ColumnUSDValue         = "USD_Value"
)

// RecognizedColumns lists the recognized columns in canonical order.
var RecognizedColumns = []string{
	ColumnDescription,
	ColumnOriginCountry,
	ColumnImporterAddress1,
	ColumnImporterAddress2,
	ColumnWeight,
	ColumnUSDValue,
}

// Table is a header row plus data rows as produced by a tabular-file reader.
type Table struct {
	Source string     `json:"source,omitempty" yaml:"source,omitempty"`
	Header []string   `json:"header" yaml:"header"`
	Rows   [][]string `json:"rows" yaml:"rows"`
}

// Contributions is the per-rule breakdown of a suspicion score.
type Contributions struct {
	Keywords       int `json:"keywords" yaml:"keywords"`
	Country        int `json:"country" yaml:"country"`
	Address        int `json:"address" yaml:"address"`
	ValueDensity   int `json:"value_density" yaml:"valueDensity"`
	AbnormalWeight int `json:"abnormal_weight" yaml:"abnormalWeight"`
}

// Total is the unweighted sum of all rule contributions.
func (c Contributions) Total() int {
	return c.Keywords + c.Country + c.Address + c.ValueDensity + c.AbnormalWeight
}

// Record is one manifest line item. Nil text fields mean no data, either
// because the column is absent from the dataset or the cell is blank.
type Record struct {
	Row              int     `json:"row" yaml:"row"`
	Description      *string `json:"description,omitempty" yaml:"description,omitempty"`
	OriginCountry    *string `json:"origin_country,omitempty" yaml:"originCountry,omitempty"`
	ImporterAddress1 *string `json:"importer_address_1,omitempty" yaml:"importerAddress1,omitempty"`
	ImporterAddress2 *string `json:"importer_address_2,omitempty" yaml:"importerAddress2,omitempty"`
	Weight           float64 `json:"weight" yaml:"weight"`
	USDValue         float64 `json:"usd_value" yaml:"usdValue"`

	// ValueToWeight is set only when Weight > 0.
	ValueToWeight *float64 `json:"value_to_weight,omitempty" yaml:"valueToWeight,omitempty"`

	IsLowValueHeavy  bool          `json:"is_low_value_heavy" yaml:"isLowValueHeavy"`
	IsAbnormalWeight bool          `json:"is_abnormal_weight" yaml:"isAbnormalWeight"`
	CountryRisk      bool          `json:"country_risk" yaml:"countryRisk"`
	AddressRisk      bool          `json:"address_risk" yaml:"addressRisk"`
	KeywordHits      int           `json:"keyword_hits" yaml:"keywordHits"`
	MatchedTerms     []string      `json:"matched_terms,omitempty" yaml:"matchedTerms,omitempty"`
	Contributions    Contributions `json:"contributions" yaml:"contributions"`
	SuspicionScore   int           `json:"suspicion_score" yaml:"suspicionScore"`

	// Extra holds the raw cells of the unrecognized columns, aligned with
	// RankedResult.ExtraColumns.
	Extra []string `json:"extra,omitempty" yaml:"extra,omitempty"`

	text matchText
}

// matchText holds the normalized copies of the text fields the rules read.
type matchText struct {
	description string
	origin      string
	address1    string
	address2    string
}

// RankedResult is the output of Analyze, handed to export collaborators by the caller.
type RankedResult struct {
	Columns      []string          `json:"columns" yaml:"columns"`
	ExtraColumns []string          `json:"extra_columns,omitempty" yaml:"extraColumns,omitempty"`
	TotalRecords int               `json:"total_records" yaml:"totalRecords"`
	TopN         int               `json:"top_n" yaml:"topN"`
	Records      []*Record         `json:"records" yaml:"records"`
	Anomalies    []CoercionAnomaly `json:"anomalies,omitempty" yaml:"anomalies,omitempty"`
	RuleHits     map[string]int    `json:"rule_hits" yaml:"ruleHits"`
}

// HasColumn reports whether the analyzed dataset carried the named column.
func (r *RankedResult) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Value returns the text of an optional field, empty when absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
