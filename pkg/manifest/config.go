package manifest

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	DefaultValueDensityThreshold   float64 = 10
	DefaultAbnormalWeightThreshold float64 = 100
	DefaultTopN                    int     = 10
)

// Config holds the externally tunable inputs of the scoring rules.
// Zero thresholds are taken literally, start from DefaultConfig to get the stock values.
type Config struct {
	SuspiciousTerms         []string `json:"suspicious_terms" yaml:"suspiciousTerms"`
	RiskyCountries          []string `json:"risky_countries" yaml:"riskyCountries"`
	RiskyAreas              []string `json:"risky_areas" yaml:"riskyAreas"`
	ValueDensityThreshold   float64  `json:"value_density_threshold" yaml:"valueDensityThreshold"`
	AbnormalWeightThreshold float64  `json:"abnormal_weight_threshold" yaml:"abnormalWeightThreshold"`
	TopN                    int      `json:"top_n" yaml:"topN"`
	Workers                 int      `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// DefaultConfig returns the stock term lists and thresholds.
func DefaultConfig() Config {
	return Config{
		SuspiciousTerms: []string{
			"powder", "capsule", "tablet", "herb", "herbal", "extract", "leaf", "tea",
			"khat", "supplement", "medicine", "sample", "personal use", "personal goods",
			"organic matter", "resin", "seeds", "incense", "oil", "natural", "botanical",
			"kava powder", "kratom", "herbal capsules", "slimming tea", "pain relief",
			"muscle relaxant", "sleep aid", "natural remedy", "detox tea", "cannabis",
			"cbd", "thc", "ayahuasca", "magic mushrooms", "indus clean", "clean tea",
			"bio cleanse", "body flush", "slim pro", "energy capsule", "health supplement",
			"unknown origin", "medical sample",
		},
		RiskyCountries: []string{
			"thailand", "china", "hong kong", "netherlands", "holland", "united kingdom",
			"australia", "nigeria", "colombia", "peru", "mexico", "pakistan", "iran", "india",
		},
		RiskyAreas: []string{
			"international city", "ajman", "sharjah", "muhaisnah", "al qusais", "deira",
			"hor al anz", "naif", "rolla", "industrial area",
		},
		ValueDensityThreshold:   DefaultValueDensityThreshold,
		AbnormalWeightThreshold: DefaultAbnormalWeightThreshold,
		TopN:                    DefaultTopN,
	}
}

// Sanitize returns a copy with normalized, de-duplicated term lists and
// defaults restored for out of range values.
func (c Config) Sanitize() Config {
	out := Config{
		SuspiciousTerms:         cleanTerms(c.SuspiciousTerms),
		RiskyCountries:          cleanTerms(c.RiskyCountries),
		RiskyAreas:              cleanTerms(c.RiskyAreas),
		ValueDensityThreshold:   c.ValueDensityThreshold,
		AbnormalWeightThreshold: c.AbnormalWeightThreshold,
		TopN:                    c.TopN,
		Workers:                 c.Workers,
	}
	if out.ValueDensityThreshold < 0 {
		out.ValueDensityThreshold = DefaultValueDensityThreshold
	}
	if out.AbnormalWeightThreshold < 0 {
		out.AbnormalWeightThreshold = DefaultAbnormalWeightThreshold
	}
	if out.TopN <= 0 {
		out.TopN = DefaultTopN
	}
	if out.Workers < 0 {
		out.Workers = 0
	}
	return out
}

// cleanTerms normalizes terms for matching and drops blanks and duplicates, keeping first-seen order.
func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = normalizeText(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// normalizeText is the single text form every rule matches against.
func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}
