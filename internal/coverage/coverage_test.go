package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/just-nibble/srs-tracker/internal/domain"
)

func reqs(texts ...string) domain.RequirementsArtifact {
	out := domain.RequirementsArtifact{}
	for _, t := range texts {
		out.Requirements = append(out.Requirements, domain.Requirement{Text: t})
	}
	return out
}

func intp(v int) *int { return &v }

func TestCompareAggregates(t *testing.T) {
	code := domain.CodeArtifact{Functions: []domain.Function{
		{Name: "login", File: "auth.py"},
		{Name: "logout", File: "auth.py"},
		{Name: "helper", File: "util.py"},
	}}
	judgment := []domain.RequirementMatch{
		{Requirement: "Users can log in", Implemented: true, Locations: []string{"auth.py:login"}},
		{Requirement: "users can  LOG OUT", Implemented: true, Locations: []string{"logout"}},
		{Requirement: "Export reports", Implemented: false},
	}

	res := Compare(reqs("Users can log in", "Users can log out", "Export reports", "Audit trail"), code, judgment)

	assert.Equal(t, 4, res.Stats.TotalRequirements)
	assert.Equal(t, 2, res.Stats.Implemented)
	assert.Equal(t, 2, res.Stats.Missing)
	assert.Equal(t, 1, res.Stats.Undocumented)
	assert.Equal(t, 50.0, res.Stats.Coverage)
	assert.Equal(t, []string{"Export reports", "Audit trail"}, res.Unmatched)
	assert.Equal(t, "helper", res.Undocumented[0].Name)
}

func TestCompareEmptyRequirements(t *testing.T) {
	res := Compare(domain.RequirementsArtifact{}, domain.CodeArtifact{}, nil)
	assert.Equal(t, 0.0, res.Stats.Coverage)
	assert.Equal(t, 0, res.Stats.TotalRequirements)
}

func TestPercentageBounds(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 0.0, Percentage(5, 0))
	assert.Equal(t, 0.0, Percentage(-1, 4))
	assert.Equal(t, 100.0, Percentage(7, 3))
	assert.Equal(t, 33.33, Percentage(1, 3))

	for total := 0; total < 20; total++ {
		for impl := -2; impl < 25; impl++ {
			p := Percentage(impl, total)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 100.0)
		}
	}
}

func TestSummarizeFromMatches(t *testing.T) {
	raw := domain.ComparisonArtifact{
		Matches: []domain.RequirementMatch{
			{Requirement: "a", Implemented: true},
			{Requirement: "b", Implemented: false},
			{Requirement: "c", Implemented: true},
			{Requirement: "d", Implemented: true},
		},
		Reported: domain.ReportedCounts{Total: intp(10), Implemented: intp(1), Undocumented: intp(2)},
	}

	stats := Summarize(raw)
	assert.Equal(t, 4, stats.TotalRequirements)
	assert.Equal(t, 3, stats.Implemented)
	assert.Equal(t, 1, stats.Missing)
	assert.Equal(t, 2, stats.Undocumented)
	assert.Equal(t, 75.0, stats.Coverage)
}

func TestSummarizeFromCounts(t *testing.T) {
	stats := Summarize(domain.ComparisonArtifact{
		Reported: domain.ReportedCounts{Implemented: intp(3), Missing: intp(1)},
	})
	assert.Equal(t, 4, stats.TotalRequirements)
	assert.Equal(t, 75.0, stats.Coverage)

	stats = Summarize(domain.ComparisonArtifact{
		Reported: domain.ReportedCounts{Total: intp(5), Implemented: intp(2)},
	})
	assert.Equal(t, 3, stats.Missing)
	assert.Equal(t, 40.0, stats.Coverage)
}

func TestSummarizeNeverLeavesRange(t *testing.T) {
	stats := Summarize(domain.ComparisonArtifact{
		Reported: domain.ReportedCounts{Total: intp(2), Implemented: intp(9)},
	})
	assert.Equal(t, 100.0, stats.Coverage)

	cov := 250.0
	stats = Summarize(domain.ComparisonArtifact{Reported: domain.ReportedCounts{Coverage: &cov}})
	assert.Equal(t, 100.0, stats.Coverage)

	stats = Summarize(domain.ComparisonArtifact{})
	assert.Equal(t, 0.0, stats.Coverage)
}

func TestEvaluateUsesJudgmentWhenAligned(t *testing.T) {
	raw := domain.ComparisonArtifact{
		Matches: []domain.RequirementMatch{
			{Requirement: "A", Implemented: true, Locations: []string{"f"}},
		},
		Reported: domain.ReportedCounts{Total: intp(1), Implemented: intp(1)},
	}
	code := domain.CodeArtifact{Functions: []domain.Function{{Name: "f"}, {Name: "g"}}}

	res := Evaluate(reqs("a", "b"), code, raw)
	assert.Equal(t, 2, res.Stats.TotalRequirements)
	assert.Equal(t, 1, res.Stats.Undocumented)
	assert.Equal(t, 50.0, res.Stats.Coverage)
}

func TestEvaluateFallsBackWhenJudgmentRephrases(t *testing.T) {
	raw := domain.ComparisonArtifact{
		Matches: []domain.RequirementMatch{
			{Requirement: "a, reworded", Implemented: true},
			{Requirement: "b", Implemented: true},
		},
	}

	res := Evaluate(reqs("a", "b", "c"), domain.CodeArtifact{}, raw)
	assert.Equal(t, 2, res.Stats.TotalRequirements)
	assert.Equal(t, 100.0, res.Stats.Coverage)
	assert.Empty(t, res.Unmatched)
}
