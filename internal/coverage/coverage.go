// Package coverage aggregates an external requirement-vs-code judgment into
// comparison statistics. Deciding whether a requirement is implemented is
// the analysis script's job; this package only counts.
package coverage

import (
	"math"
	"strings"

	"github.com/just-nibble/srs-tracker/internal/domain"
)

type Result struct {
	Stats        domain.ComparisonStats
	Matched      []string
	Unmatched    []string
	Undocumented []domain.Function
}

// Compare counts req against the per-requirement judgment. Requirements
// the judgment does not mention are unmatched. A function is undocumented
// when no implemented requirement lists it as a location.
func Compare(req domain.RequirementsArtifact, code domain.CodeArtifact, judgment []domain.RequirementMatch) Result {
	verdicts := make(map[string]domain.RequirementMatch, len(judgment))
	for _, m := range judgment {
		verdicts[normalize(m.Requirement)] = m
	}

	res := Result{Matched: []string{}, Unmatched: []string{}, Undocumented: []domain.Function{}}
	linked := map[string]bool{}

	for _, r := range req.Requirements {
		m, ok := verdicts[normalize(r.Text)]
		if ok && m.Implemented {
			res.Matched = append(res.Matched, r.Text)
			for _, loc := range m.Locations {
				linked[normalize(loc)] = true
			}
			continue
		}
		res.Unmatched = append(res.Unmatched, r.Text)
	}

	for _, fn := range code.Functions {
		if !isLinked(fn, linked) {
			res.Undocumented = append(res.Undocumented, fn)
		}
	}

	total := len(req.Requirements)
	res.Stats = domain.ComparisonStats{
		TotalRequirements: total,
		Implemented:       len(res.Matched),
		Missing:           len(res.Unmatched),
		Undocumented:      len(res.Undocumented),
		Coverage:          Percentage(len(res.Matched), total),
	}
	return res
}

// Evaluate uses the per-requirement judgment in raw when every judged
// requirement appears in req, and the script's own figures otherwise.
func Evaluate(req domain.RequirementsArtifact, code domain.CodeArtifact, raw domain.ComparisonArtifact) Result {
	if len(raw.Matches) > 0 && aligned(req, raw.Matches) {
		return Compare(req, code, raw.Matches)
	}
	return Result{
		Stats:        Summarize(raw),
		Matched:      []string{},
		Unmatched:    []string{},
		Undocumented: []domain.Function{},
	}
}

func aligned(req domain.RequirementsArtifact, judgment []domain.RequirementMatch) bool {
	known := make(map[string]bool, len(req.Requirements))
	for _, r := range req.Requirements {
		known[normalize(r.Text)] = true
	}
	for _, m := range judgment {
		if !known[normalize(m.Requirement)] {
			return false
		}
	}
	return true
}

// Summarize recomputes statistics from a raw comparison output alone.
// Per-requirement matches win over counts the script reported.
func Summarize(raw domain.ComparisonArtifact) domain.ComparisonStats {
	var stats domain.ComparisonStats

	if len(raw.Matches) > 0 {
		for _, m := range raw.Matches {
			if m.Implemented {
				stats.Implemented++
			}
		}
		stats.TotalRequirements = len(raw.Matches)
		stats.Missing = stats.TotalRequirements - stats.Implemented
	} else {
		stats.Implemented = valueOr(raw.Reported.Implemented, 0)
		stats.Missing = valueOr(raw.Reported.Missing, 0)
		stats.TotalRequirements = valueOr(raw.Reported.Total, stats.Implemented+stats.Missing)
		if raw.Reported.Missing == nil && stats.TotalRequirements >= stats.Implemented {
			stats.Missing = stats.TotalRequirements - stats.Implemented
		}
	}
	stats.Undocumented = valueOr(raw.Reported.Undocumented, 0)

	switch {
	case stats.TotalRequirements > 0:
		stats.Coverage = Percentage(stats.Implemented, stats.TotalRequirements)
	case raw.Reported.Coverage != nil && raw.Reported.Total == nil:
		stats.Coverage = clamp(*raw.Reported.Coverage)
	}
	return stats
}

// Percentage is implemented/total*100 rounded to two decimals, 0 when
// total is 0, and always within [0, 100].
func Percentage(implemented, total int) float64 {
	if total <= 0 || implemented <= 0 {
		return 0
	}
	return clamp(math.Round(float64(implemented)/float64(total)*10000) / 100)
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

func valueOr(p *int, fallback int) int {
	if p == nil || *p < 0 {
		return fallback
	}
	return *p
}

func isLinked(fn domain.Function, linked map[string]bool) bool {
	name := normalize(fn.Name)
	if linked[name] {
		return true
	}
	if fn.File != "" && linked[normalize(fn.File)+":"+name] {
		return true
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
