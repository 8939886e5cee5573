package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(status ResponseStatus, n int) []ResponseStatus {
	out := make([]ResponseStatus, n)
	for i := range out {
		out[i] = status
	}
	return out
}

func TestScoreMixedResponses(t *testing.T) {
	statuses := append(repeat(ResponseStatusCompliant, 6), repeat(ResponseStatusNonCompliant, 2)...)
	statuses = append(statuses, repeat(ResponseStatusPending, 2)...)

	r := Score(statuses)

	assert.Equal(t, 10, r.Total)
	assert.Equal(t, 2, r.Pending)
	assert.Equal(t, 8, r.Evaluated)
	assert.Equal(t, 80, r.Progress)
	require.NotNil(t, r.Compliance)
	assert.Equal(t, "75.00", r.ComplianceText())
}

func TestScoreNothingEvaluated(t *testing.T) {
	r := Score(repeat(ResponseStatusPending, 4))

	assert.Equal(t, 0, r.Progress)
	assert.Nil(t, r.Compliance)
	assert.Equal(t, "N/A", r.ComplianceText())
}

func TestScoreEmpty(t *testing.T) {
	r := Score(nil)

	assert.Equal(t, 0, r.Total)
	assert.Equal(t, 0, r.Progress)
	assert.Nil(t, r.Compliance)
}

func TestScoreNotApplicableCountsAsEvaluated(t *testing.T) {
	r := Score([]ResponseStatus{ResponseStatusCompliant, ResponseStatusNotApplicable})

	assert.Equal(t, 100, r.Progress)
	assert.Equal(t, "50.00", r.ComplianceText())
}

func TestScoreProgressTruncates(t *testing.T) {
	r := Score([]ResponseStatus{ResponseStatusCompliant, ResponseStatusPending, ResponseStatusPending})

	assert.Equal(t, 33, r.Progress)
	assert.Equal(t, "100.00", r.ComplianceText())
}

func TestScoreRoundsToTwoPlaces(t *testing.T) {
	r := Score([]ResponseStatus{ResponseStatusCompliant, ResponseStatusNonCompliant, ResponseStatusPartiallyCompliant})

	assert.Equal(t, "33.33", r.ComplianceText())
	assert.Equal(t, 1, r.PartiallyCompliant)
}

func TestScoreBySeverity(t *testing.T) {
	scores := ScoreBySeverity([]ScoredItem{
		{Status: ResponseStatusCompliant, Severity: SeverityCritical},
		{Status: ResponseStatusNonCompliant, Severity: SeverityCritical},
		{Status: ResponseStatusCompliant, Severity: SeverityMajor},
		{Status: ResponseStatusPending, Severity: SeverityMinor},
	})

	assert.Equal(t, 4, scores.Overall.Total)
	assert.Equal(t, "66.67", scores.Overall.ComplianceText())
	assert.Equal(t, "50.00", scores.Critical.ComplianceText())
	assert.Equal(t, "100.00", scores.Major.ComplianceText())
}

func TestReportSummary(t *testing.T) {
	statuses := append(repeat(ResponseStatusCompliant, 6), repeat(ResponseStatusNonCompliant, 2)...)

	assert.Equal(t, "Compliance assessment completed with score of 75.00%", reportSummary(Score(statuses)))
	assert.Equal(t, "Compliance assessment completed with no evaluated items", reportSummary(Score(nil)))
}

func TestDefaultReportTitle(t *testing.T) {
	audit := &Audit{Title: "Q3 review"}
	assert.Equal(t, "Compliance Report - Q3 review", defaultReportTitle(audit))

	audit.Application = &Application{Name: "Payments"}
	assert.Equal(t, "Compliance Report - Payments", defaultReportTitle(audit))
}
