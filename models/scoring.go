package models

import "github.com/shopspring/decimal"

// ScoreResult is the derived view over a set of response statuses.
// Compliance is nil when nothing has been evaluated yet, which is
// different from a 0% score.
type ScoreResult struct {
	Total              int              `json:"total"`
	Pending            int              `json:"pending"`
	Evaluated          int              `json:"evaluated"`
	Compliant          int              `json:"compliant"`
	NonCompliant       int              `json:"non_compliant"`
	PartiallyCompliant int              `json:"partially_compliant"`
	NotApplicable      int              `json:"not_applicable"`
	Progress           int              `json:"progress_percentage"`
	Compliance         *decimal.Decimal `json:"compliance_score"`
}

var hundred = decimal.NewFromInt(100)

// Score computes progress and compliance for a set of response statuses.
//
//	progress   = non-pending / total * 100, truncated
//	compliance = compliant / non-pending * 100, rounded to 2 places
func Score(statuses []ResponseStatus) ScoreResult {
	var r ScoreResult
	r.Total = len(statuses)
	for _, s := range statuses {
		switch s {
		case ResponseStatusPending:
			r.Pending++
		case ResponseStatusCompliant:
			r.Compliant++
		case ResponseStatusNonCompliant:
			r.NonCompliant++
		case ResponseStatusPartiallyCompliant:
			r.PartiallyCompliant++
		case ResponseStatusNotApplicable:
			r.NotApplicable++
		}
	}
	r.Evaluated = r.Total - r.Pending

	if r.Total > 0 {
		r.Progress = r.Evaluated * 100 / r.Total
	}
	if r.Evaluated > 0 {
		score := decimal.NewFromInt(int64(r.Compliant)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(r.Evaluated))).
			Round(2)
		r.Compliance = &score
	}
	return r
}

// ComplianceText renders the score with two decimals, or "N/A" when undefined.
func (r ScoreResult) ComplianceText() string {
	if r.Compliance == nil {
		return "N/A"
	}
	return r.Compliance.StringFixed(2)
}

// ScoredItem is the minimum a response needs to be scored by severity.
type ScoredItem struct {
	Status   ResponseStatus
	Severity Severity
}

type SeverityScores struct {
	Overall  ScoreResult `json:"overall"`
	Critical ScoreResult `json:"critical"`
	Major    ScoreResult `json:"major"`
}

// ScoreBySeverity scores all items, then the critical and major subsets.
func ScoreBySeverity(items []ScoredItem) SeverityScores {
	all := make([]ResponseStatus, 0, len(items))
	var critical, major []ResponseStatus
	for _, it := range items {
		all = append(all, it.Status)
		switch it.Severity {
		case SeverityCritical:
			critical = append(critical, it.Status)
		case SeverityMajor:
			major = append(major, it.Status)
		}
	}
	return SeverityScores{
		Overall:  Score(all),
		Critical: Score(critical),
		Major:    Score(major),
	}
}
