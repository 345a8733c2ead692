// Package feed orders skill listings from vote tallies and timestamps.
// Hot scores and controversy are derived values: always recomputable from
// (upvotes, downvotes, created_at), never stored as ground truth.
package feed

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Mode selects the feed ordering.
type Mode string

const (
	Hot    Mode = "hot"
	Top    Mode = "top"
	Newest Mode = "new"
)

// Gravity is the hot-score time divisor.
const Gravity = 1.8

// ErrInvalidMode is returned for a mode outside hot/top/new.
var ErrInvalidMode = errors.New("invalid feed mode")

// Entry is one ranked skill.
type Entry struct {
	SkillID       string
	CanonicalName string
	Version       string
	CreatedAt     time.Time
	Upvotes       int64
	Downvotes     int64
	VoteScore     int64
	HotScore      float64
	Controversy   float64
}

// Filters narrows a feed request. Zero values mean no filtering.
type Filters struct {
	Name     string // exact canonical name
	Uploader string // agent present in the identity's uploader set
}

// Ranker produces feed orderings over validated, non-retired skills.
type Ranker struct {
	db *sql.DB

	// now is the age clock; overridable in tests.
	now func() time.Time
}

func New(db *sql.DB) *Ranker {
	return &Ranker{db: db, now: time.Now}
}

// HotScore is the ordering key for hot feeds: log10(max(|score|,1)) plus
// hours of age over gravity, rounded to four decimals. The sign of the vote
// score folds into magnitude only; a heavily-downvoted skill ranks like an
// equally heavily-upvoted one.
func HotScore(upvotes, downvotes int64, createdAt, now time.Time) float64 {
	score := upvotes - downvotes
	mag := score
	if mag < 0 {
		mag = -mag
	}
	if mag < 1 {
		mag = 1
	}
	order := math.Log10(float64(mag))
	age := now.Sub(createdAt).Hours()
	return math.Round((order+age/Gravity)*1e4) / 1e4
}

// Controversy measures how contested a target is: the downvote share scaled
// by a volume cap. Used as a tie-break, never inside the hot score.
func Controversy(upvotes, downvotes int64) float64 {
	total := upvotes + downvotes
	if total == 0 {
		return 0
	}
	return float64(downvotes) / float64(total) * math.Min(float64(total)/100, 1.0)
}

// Rank returns one page of the feed in the requested order. The result is a
// snapshot: callers must re-request after tallies change rather than resume
// a stale ordering.
func (r *Ranker) Rank(mode Mode, f Filters, limit, offset int) ([]Entry, error) {
	switch mode {
	case Hot, Top, Newest:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	entries, err := r.load(f)
	if err != nil {
		return nil, err
	}

	switch mode {
	case Hot:
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].HotScore != entries[j].HotScore {
				return entries[i].HotScore > entries[j].HotScore
			}
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		})
	case Top:
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].VoteScore != entries[j].VoteScore {
				return entries[i].VoteScore > entries[j].VoteScore
			}
			return entries[i].Controversy > entries[j].Controversy
		})
	case Newest:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		})
	}

	return page(entries, limit, offset), nil
}

// load pulls every surfaceable skill and computes the derived keys. Only
// identities the external validator passed, and that are not retired, are
// eligible.
func (r *Ranker) load(f Filters) ([]Entry, error) {
	query := `
		SELECT s.skill_id, s.canonical_name, s.version, s.created_at, s.upvotes, s.downvotes, s.vote_score
		FROM skills s
		WHERE s.validated = 1 AND s.retired = 0`
	var args []any
	if f.Name != "" {
		query += ` AND s.canonical_name = ?`
		args = append(args, f.Name)
	}
	if f.Uploader != "" {
		query += ` AND EXISTS (SELECT 1 FROM skill_uploaders u WHERE u.skill_id = s.skill_id AND u.agent_id = ?)`
		args = append(args, f.Uploader)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	defer rows.Close()

	now := r.now().UTC()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SkillID, &e.CanonicalName, &e.Version, &e.CreatedAt,
			&e.Upvotes, &e.Downvotes, &e.VoteScore); err != nil {
			return nil, fmt.Errorf("scan feed row: %w", err)
		}
		e.HotScore = HotScore(e.Upvotes, e.Downvotes, e.CreatedAt, now)
		e.Controversy = Controversy(e.Upvotes, e.Downvotes)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func page(entries []Entry, limit, offset int) []Entry {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}
