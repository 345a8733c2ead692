// Package rating is the usage-gated weighted review aggregator. Agents may
// review a skill once, only after enough real usage, and their review's
// weight follows their usage depth. Abuse heuristics down-weight rather
// than reject, so an agent can always audit its own submission.
package rating

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skillsarena/arena/internal/ledger"
)

// MinUsage is the invocation floor below which an agent cannot review.
const MinUsage = 5

var (
	ErrInvalidRating     = errors.New("rating must be within [0,100]")
	ErrInsufficientUsage = errors.New("insufficient usage to review")
	ErrAlreadyReviewed   = errors.New("already reviewed")
	ErrNoReviews         = errors.New("no rating yet")
)

// Review is an accepted review. Immutable after creation: a later submission
// for the same (agent, skill) pair is rejected, never merged.
type Review struct {
	ReviewID          string
	SkillID           string
	AgentID           string
	Rating            float64
	Comment           string
	UsageAtSubmission int64
	Weight            float64
	FlaggedAbusive    bool
	CreatedAt         time.Time
}

// Summary is the aggregate view of a skill's reviews.
type Summary struct {
	SkillID  string
	Weighted float64
	Reviews  int
	Flagged  int
}

// Aggregator accepts reviews and computes weighted means.
type Aggregator struct {
	db     *sql.DB
	ledger *ledger.Ledger

	// now is the submission clock; overridable in tests.
	now func() time.Time
}

func New(db *sql.DB, l *ledger.Ledger) *Aggregator {
	return &Aggregator{db: db, ledger: l, now: time.Now}
}

// weightFor is the monotonic step schedule over invocation count at
// submission time.
func weightFor(invocations int64) float64 {
	switch {
	case invocations < MinUsage:
		return 0
	case invocations < 20:
		return 1.0
	case invocations < 50:
		return 1.5
	case invocations < 100:
		return 2.0
	default:
		return 3.0
	}
}

// Submit runs the eligibility gate, the abuse heuristics, and inserts the
// review. A flagged review is still accepted with its weight cut to a
// tenth; rejection is reserved for eligibility and uniqueness violations.
func (a *Aggregator) Submit(agentID, skillID string, rating float64, comment string) (Review, error) {
	if rating < 0 || rating > 100 {
		return Review{}, ErrInvalidRating
	}
	invocations, err := a.ledger.Invocations(agentID, skillID)
	if err != nil {
		return Review{}, err
	}
	if invocations < MinUsage {
		return Review{}, fmt.Errorf("%w: %d of %d invocations", ErrInsufficientUsage, invocations, MinUsage)
	}

	now := a.now().UTC()
	flagged, err := a.flags(agentID, rating, now)
	if err != nil {
		return Review{}, err
	}
	weight := weightFor(invocations)
	if flagged {
		weight *= 0.1
	}

	rev := Review{
		ReviewID:          uuid.NewString(),
		SkillID:           skillID,
		AgentID:           agentID,
		Rating:            rating,
		Comment:           comment,
		UsageAtSubmission: invocations,
		Weight:            weight,
		FlaggedAbusive:    flagged,
		CreatedAt:         now,
	}
	flagInt := 0
	if flagged {
		flagInt = 1
	}
	// Insert-only: the (agent, skill) unique index is the one-shot rule.
	_, err = a.db.Exec(`
		INSERT INTO reviews (review_id, skill_id, agent_id, rating, comment, usage_at_submission, weight, flagged_abusive, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.ReviewID, rev.SkillID, rev.AgentID, rev.Rating, rev.Comment,
		rev.UsageAtSubmission, rev.Weight, flagInt, rev.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return Review{}, ErrAlreadyReviewed
		}
		return Review{}, fmt.Errorf("insert review: %w", err)
	}
	return rev, nil
}

// CurrentRating is the weight-blended mean over all reviews for a skill.
// With no reviews it reports ErrNoReviews rather than zero, since zero is
// indistinguishable from a genuine worst score.
func (a *Aggregator) CurrentRating(skillID string) (Summary, error) {
	var (
		weighted sql.NullFloat64
		count    int
		flagged  int
	)
	err := a.db.QueryRow(`
		SELECT SUM(rating * weight) / SUM(weight), COUNT(*), COALESCE(SUM(flagged_abusive), 0)
		FROM reviews WHERE skill_id = ?`, skillID).
		Scan(&weighted, &count, &flagged)
	if err != nil {
		return Summary{}, fmt.Errorf("current rating: %w", err)
	}
	if count == 0 || !weighted.Valid {
		return Summary{}, ErrNoReviews
	}
	return Summary{SkillID: skillID, Weighted: weighted.Float64, Reviews: count, Flagged: flagged}, nil
}

// BySkill returns a skill's reviews, newest first.
func (a *Aggregator) BySkill(skillID string) ([]Review, error) {
	rows, err := a.db.Query(`
		SELECT review_id, skill_id, agent_id, rating, comment, usage_at_submission, weight, flagged_abusive, created_at
		FROM reviews WHERE skill_id = ? ORDER BY created_at DESC`, skillID)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	defer rows.Close()
	return collectReviews(rows)
}

func collectReviews(rows *sql.Rows) ([]Review, error) {
	var out []Review
	for rows.Next() {
		var r Review
		var flagged int
		if err := rows.Scan(&r.ReviewID, &r.SkillID, &r.AgentID, &r.Rating, &r.Comment,
			&r.UsageAtSubmission, &r.Weight, &flagged, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		r.FlaggedAbusive = flagged != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
