package compliance

import (
	"strings"

	"blackcoral/internal/models"
)

// StatusPolicy derives a check status from a rule and its keyword-match
// outcome. The derivation is business policy, not a fixed algorithm, so it
// is injectable; KeywordPolicy is the default.
type StatusPolicy interface {
	Decide(rule models.ComplianceRule, matched bool) models.CheckStatus
}

// KeywordPolicy treats trigger keywords as required terms: presence means
// compliant, absence means non-compliant for critical/high rules and
// needs-review for the rest.
type KeywordPolicy struct{}

func (KeywordPolicy) Decide(rule models.ComplianceRule, matched bool) models.CheckStatus {
	if matched {
		return models.StatusCompliant
	}
	switch rule.Severity {
	case models.SeverityCritical, models.SeverityHigh:
		return models.StatusNonCompliant
	default:
		return models.StatusNeedsReview
	}
}

// RuleMatches reports whether any of the rule's trigger keywords occurs in
// content (case-insensitive substring), and which keyword hit first.
func RuleMatches(rule models.ComplianceRule, content string) (bool, string) {
	haystack := strings.ToLower(content)
	for _, kw := range rule.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true, kw
		}
	}
	return false, ""
}
