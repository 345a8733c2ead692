package rating

import (
	"fmt"
	"time"
)

// Abuse heuristics run over the agent's most recent reviews across all
// skills, queried fresh at submission time. Nothing about an agent's
// "abusiveness" is persisted; the window is always recomputed.
const (
	abuseWindow       = 10
	extremeLowCutoff  = 30.0
	extremeHighCutoff = 95.0
	negativeCutoff    = 40.0
	negativeShare     = 0.7
	rateWindowSize    = 5
	rateWindowSpan    = 60 * time.Second
)

// flags reports whether the pending submission trips any heuristic:
// runs of extreme scores, a mostly-negative recent history, or a submission
// rate no genuine reviewer reaches.
func (a *Aggregator) flags(agentID string, newRating float64, now time.Time) (bool, error) {
	prior, err := a.recent(agentID, abuseWindow)
	if err != nil {
		return false, err
	}

	if newRating < extremeLowCutoff && leadingRun(prior, func(r Review) bool { return r.Rating < extremeLowCutoff }) >= 3 {
		return true, nil
	}
	if newRating > extremeHighCutoff && leadingRun(prior, func(r Review) bool { return r.Rating > extremeHighCutoff }) >= 3 {
		return true, nil
	}

	if newRating < negativeCutoff && len(prior) >= 3 {
		low := 0
		for _, r := range prior {
			if r.Rating < negativeCutoff {
				low++
			}
		}
		if float64(low) > negativeShare*float64(len(prior)) {
			return true, nil
		}
	}

	// The pending review counts as one of the five most recent.
	if len(prior) >= rateWindowSize-1 {
		oldest := prior[rateWindowSize-2].CreatedAt
		if now.Sub(oldest) < rateWindowSpan {
			return true, nil
		}
	}

	return false, nil
}

// recent returns up to n of the agent's reviews, newest first.
func (a *Aggregator) recent(agentID string, n int) ([]Review, error) {
	rows, err := a.db.Query(`
		SELECT review_id, skill_id, agent_id, rating, comment, usage_at_submission, weight, flagged_abusive, created_at
		FROM reviews WHERE agent_id = ? ORDER BY created_at DESC LIMIT ?`, agentID, n)
	if err != nil {
		return nil, fmt.Errorf("load recent reviews: %w", err)
	}
	defer rows.Close()
	return collectReviews(rows)
}

// leadingRun counts how many consecutive reviews, newest first, satisfy the
// predicate before the first that does not.
func leadingRun(reviews []Review, pred func(Review) bool) int {
	n := 0
	for _, r := range reviews {
		if !pred(r) {
			break
		}
		n++
	}
	return n
}
