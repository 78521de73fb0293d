package manifest

// Score evaluates every rule against r and stores the breakdown, the derived
// flags and the total on the record. cfg must be sanitized.
func Score(r *Record, cfg *Config) {
	terms := matchedTerms(r, cfg)
	c := Contributions{
		Keywords:       len(terms),
		Country:        CountryRule(r, cfg),
		Address:        AddressRule(r, cfg),
		ValueDensity:   ValueDensityRule(r, cfg),
		AbnormalWeight: AbnormalWeightRule(r, cfg),
	}

	r.MatchedTerms = terms
	r.KeywordHits = c.Keywords
	r.CountryRisk = c.Country > 0
	r.AddressRisk = c.Address > 0
	r.IsLowValueHeavy = c.ValueDensity > 0
	r.IsAbnormalWeight = c.AbnormalWeight > 0
	r.Contributions = c
	r.SuspicionScore = c.Total()
}

// RuleHits counts, per rule, the records the rule contributed to.
func RuleHits(records []*Record) map[string]int {
	hits := make(map[string]int, len(RuleNames))
	for _, name := range RuleNames {
		hits[name] = 0
	}
	for _, r := range records {
		c := r.Contributions
		if c.Keywords > 0 {
			hits[RuleKeywords]++
		}
		if c.Country > 0 {
			hits[RuleCountry]++
		}
		if c.Address > 0 {
			hits[RuleAddress]++
		}
		if c.ValueDensity > 0 {
			hits[RuleValueDensity]++
		}
		if c.AbnormalWeight > 0 {
			hits[RuleAbnormalWeight]++
		}
	}
	return hits
}
