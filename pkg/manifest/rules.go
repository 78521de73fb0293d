package manifest

import "strings"

// Rule names as used in the per-rule breakdown and metrics.
const (
	RuleKeywords       = "keywords"
	RuleCountry        = "country"
	RuleAddress        = "address"
	RuleValueDensity   = "value_density"
	RuleAbnormalWeight = "abnormal_weight"
)

// RuleNames lists all rules in evaluation order.
var RuleNames = []string{
	RuleKeywords,
	RuleCountry,
	RuleAddress,
	RuleValueDensity,
	RuleAbnormalWeight,
}

// KeywordRule counts the distinct configured terms found in the description.
func KeywordRule(r *Record, cfg *Config) int {
	return len(matchedTerms(r, cfg))
}

// CountryRule is 1 when the origin country contains any risky country.
func CountryRule(r *Record, cfg *Config) int {
	if r.OriginCountry == nil {
		return 0
	}
	return boolToInt(containsAny(r.text.origin, cfg.RiskyCountries))
}

// AddressRule is 1 when either importer address line contains any risky area.
func AddressRule(r *Record, cfg *Config) int {
	if r.ImporterAddress1 == nil && r.ImporterAddress2 == nil {
		return 0
	}
	hit := containsAny(r.text.address1, cfg.RiskyAreas) ||
		containsAny(r.text.address2, cfg.RiskyAreas)
	return boolToInt(hit)
}

// ValueDensityRule is 1 when the value to weight ratio is defined and below the threshold.
func ValueDensityRule(r *Record, cfg *Config) int {
	if r.ValueToWeight == nil {
		return 0
	}
	return boolToInt(*r.ValueToWeight < cfg.ValueDensityThreshold)
}

// AbnormalWeightRule is 1 when the weight exceeds the threshold.
func AbnormalWeightRule(r *Record, cfg *Config) int {
	return boolToInt(r.Weight > cfg.AbnormalWeightThreshold)
}

// matchedTerms returns the configured terms present in the description, in config order.
func matchedTerms(r *Record, cfg *Config) []string {
	if r.Description == nil {
		return nil
	}
	var hits []string
	for _, term := range cfg.SuspiciousTerms {
		if strings.Contains(r.text.description, term) {
			hits = append(hits, term)
		}
	}
	return hits
}

func containsAny(s string, subs []string) bool {
	if s == "" {
		return false
	}
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
