// Package engine is the facade the surrounding upload/serving layer talks
// to. It wires the registry, ledger, aggregators, ranker, votes and
// comments over one database and carries the couplings between them (a
// duplicate upload from a new uploader endorses the skill with an upvote).
package engine

import (
	"database/sql"
	"log/slog"

	"github.com/skillsarena/arena/internal/autoscore"
	"github.com/skillsarena/arena/internal/comments"
	"github.com/skillsarena/arena/internal/feed"
	"github.com/skillsarena/arena/internal/ledger"
	"github.com/skillsarena/arena/internal/rating"
	"github.com/skillsarena/arena/internal/registry"
	"github.com/skillsarena/arena/internal/vote"
)

// Engine exposes the core operations over one arena database.
type Engine struct {
	db *sql.DB

	Registry *registry.Registry
	Ledger   *ledger.Ledger
	Ratings  *rating.Aggregator
	Scorer   *autoscore.Scorer
	Feed     *feed.Ranker
	Votes    *vote.System
	Comments *comments.Resolver
}

// New wires every component over the given database. The schema must
// already be applied (storage.Open does that).
func New(db *sql.DB) *Engine {
	l := ledger.New(db)
	return &Engine{
		db:       db,
		Registry: registry.New(db),
		Ledger:   l,
		Ratings:  rating.New(db, l),
		Scorer:   autoscore.New(l),
		Feed:     feed.New(db),
		Votes:    vote.New(db),
		Comments: comments.New(db),
	}
}

// RegisterContent resolves an upload against the registry. A duplicate
// upload that adds a new uploader doubles as an endorsement: the new
// uploader auto-upvotes the existing identity (best-effort).
func (e *Engine) RegisterContent(contentHash, canonicalName, declaredVersion, uploader string) (registry.Outcome, error) {
	out, err := e.Registry.Register(contentHash, canonicalName, declaredVersion, uploader)
	if err != nil {
		return registry.Outcome{}, err
	}
	if out.Kind == registry.Duplicate && out.UploaderAdded {
		if _, err := e.Votes.Cast(uploader, vote.TargetSkill, out.SkillID, vote.Up); err != nil {
			slog.Warn("duplicate-upload auto-upvote failed", "skill", out.SkillID, "uploader", uploader, "error", err)
		}
	}
	return out, nil
}

// RecordUsage folds one invocation report into the ledger. Fire-and-forget
// accumulation: it only fails on malformed numeric input.
func (e *Engine) RecordUsage(agentID, skillID string, execSeconds float64, success bool, cpuPct, memMB float64) error {
	return e.Ledger.Add(agentID, skillID, execSeconds, success, cpuPct, memMB)
}

// SubmitReview runs the usage gate and abuse checks, then stores the
// one-shot review.
func (e *Engine) SubmitReview(agentID, skillID string, score float64, comment string) (rating.Review, error) {
	return e.Ratings.Submit(agentID, skillID, score, comment)
}

// CastVote applies one vote; vote.None cancels a live vote.
func (e *Engine) CastVote(agentID string, targetType vote.TargetType, targetID string, dir vote.Direction) (vote.Tally, error) {
	return e.Votes.Cast(agentID, targetType, targetID, dir)
}

// GetRating returns the weighted review mean, or rating.ErrNoReviews when
// nothing has been reviewed yet.
func (e *Engine) GetRating(skillID string) (rating.Summary, error) {
	return e.Ratings.CurrentRating(skillID)
}

// GetAutoScore returns the telemetry composite for a skill.
func (e *Engine) GetAutoScore(skillID string) (autoscore.CompositeScore, error) {
	return e.Scorer.Compute(skillID)
}

// GetFeed returns one ordered page of surfaceable skills.
func (e *Engine) GetFeed(mode feed.Mode, f feed.Filters, limit, offset int) ([]feed.Entry, error) {
	return e.Feed.Rank(mode, f, limit, offset)
}

// GetCommentTree returns the nested discussion for a skill.
func (e *Engine) GetCommentTree(targetID string) ([]*comments.Thread, error) {
	return e.Comments.Tree(targetID)
}

// AddComment attaches a comment (or reply) to a skill.
func (e *Engine) AddComment(targetID, parentCommentID, authorID, content string) (comments.Node, error) {
	return e.Comments.Add(targetID, parentCommentID, authorID, content)
}

// SetVerdict records the external package validator's pass/fail verdict.
// Skills without a passing verdict never surface in feeds.
func (e *Engine) SetVerdict(skillID string, passed bool) error {
	return e.Registry.SetVerdict(skillID, passed)
}
