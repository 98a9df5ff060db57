package domain

import (
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// DigestSummary holds figures about one digest run.
// It is logged and printed by the JSON dry-run, never sent to chat.
type DigestSummary struct {
	Considered          int     `json:"considered"`
	Selected            int     `json:"selected"`
	Rejected            int     `json:"rejected"`
	MedianMergeAgeHours float64 `json:"median_merge_age_hours"`
	MaxMergeAgeHours    float64 `json:"max_merge_age_hours"`
}

// RepositoryStats holds repository-level figures reported in the digest header.
type RepositoryStats struct {
	StargazerCount int `json:"stargazer_count"`
}

// Summarize computes the summary for sel, measuring merge ages relative to now.
func Summarize(sel Selection, considered int, now time.Time) (DigestSummary, error) {
	summary := DigestSummary{
		Considered: considered,
		Selected:   len(sel.Items),
		Rejected:   len(sel.Rejected),
	}
	if len(sel.Items) == 0 {
		return summary, nil
	}

	ages := make(stats.Float64Data, 0, len(sel.Items))
	for _, item := range sel.Items {
		ages = append(ages, now.Sub(item.MergedAt).Hours())
	}

	median, err := ages.Median()
	if err != nil {
		return summary, errors.Wrap(err, "failed to compute median merge age")
	}
	maxAge, err := ages.Max()
	if err != nil {
		return summary, errors.Wrap(err, "failed to compute max merge age")
	}
	summary.MedianMergeAgeHours = median
	summary.MaxMergeAgeHours = maxAge
	return summary, nil
}
