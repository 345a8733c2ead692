// Package vote keeps at most one live vote per (agent, target) and the
// upvote/downvote tallies on the target rows. A re-vote overwrites the
// prior direction; a cancel removes it.
package vote

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Direction of a cast. None cancels any live vote.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
	None Direction = "none"
)

// TargetType selects which entity table the vote lands on.
type TargetType string

const (
	TargetSkill   TargetType = "skill"
	TargetComment TargetType = "comment"
)

var (
	ErrInvalidTarget    = errors.New("invalid vote target")
	ErrInvalidDirection = errors.New("invalid vote direction")
)

// Tally is the target's state after a cast.
type Tally struct {
	Upvotes   int64
	Downvotes int64
	Score     int64
}

// System mediates vote casts over the votes table and the target tallies.
type System struct {
	db *sql.DB
}

func New(db *sql.DB) *System {
	return &System{db: db}
}

func tableFor(tt TargetType) (table, idColumn string, err error) {
	switch tt {
	case TargetSkill:
		return "skills", "skill_id", nil
	case TargetComment:
		return "comments", "comment_id", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTarget, tt)
	}
}

// Cast applies one vote. Same direction twice is a no-op; switching
// direction moves the score by two; None cancels. The whole
// check-then-write runs in one transaction so the (agent, target)
// uniqueness holds under concurrency.
func (s *System) Cast(agentID string, targetType TargetType, targetID string, dir Direction) (Tally, error) {
	if dir != Up && dir != Down && dir != None {
		return Tally{}, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	table, idCol, err := tableFor(targetType)
	if err != nil {
		return Tally{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Tally{}, fmt.Errorf("cast vote: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE `+idCol+` = ?`, targetID).Scan(&exists); err != nil {
		return Tally{}, fmt.Errorf("cast vote: %w", err)
	}
	if exists == 0 {
		return Tally{}, fmt.Errorf("%w: %s %s", ErrInvalidTarget, targetType, targetID)
	}

	var prior Direction
	err = tx.QueryRow(
		`SELECT direction FROM votes WHERE agent_id = ? AND target_type = ? AND target_id = ?`,
		agentID, string(targetType), targetID).Scan(&prior)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		prior = None
	case err != nil:
		return Tally{}, fmt.Errorf("cast vote: %w", err)
	}

	if prior != dir {
		if err := s.apply(tx, table, idCol, targetID, agentID, targetType, prior, dir); err != nil {
			return Tally{}, err
		}
	}

	tally, err := tallyIn(tx, table, idCol, targetID)
	if err != nil {
		return Tally{}, err
	}
	if err := tx.Commit(); err != nil {
		return Tally{}, fmt.Errorf("cast vote: %w", err)
	}
	return tally, nil
}

func (s *System) apply(tx *sql.Tx, table, idCol, targetID, agentID string, tt TargetType, prior, next Direction) error {
	// Vote row first.
	switch {
	case next == None:
		if _, err := tx.Exec(
			`DELETE FROM votes WHERE agent_id = ? AND target_type = ? AND target_id = ?`,
			agentID, string(tt), targetID); err != nil {
			return fmt.Errorf("delete vote: %w", err)
		}
	case prior == None:
		if _, err := tx.Exec(
			`INSERT INTO votes (agent_id, target_type, target_id, direction, updated_at) VALUES (?, ?, ?, ?, ?)`,
			agentID, string(tt), targetID, string(next), time.Now().UTC()); err != nil {
			return fmt.Errorf("insert vote: %w", err)
		}
	default:
		if _, err := tx.Exec(
			`UPDATE votes SET direction = ?, updated_at = ? WHERE agent_id = ? AND target_type = ? AND target_id = ?`,
			string(next), time.Now().UTC(), agentID, string(tt), targetID); err != nil {
			return fmt.Errorf("update vote: %w", err)
		}
	}

	// Then the tallies: undo the prior direction, apply the next one.
	dUp, dDown := 0, 0
	switch prior {
	case Up:
		dUp--
	case Down:
		dDown--
	}
	switch next {
	case Up:
		dUp++
	case Down:
		dDown++
	}
	_, err := tx.Exec(
		`UPDATE `+table+` SET upvotes = upvotes + ?, downvotes = downvotes + ?, vote_score = vote_score + ? WHERE `+idCol+` = ?`,
		dUp, dDown, dUp-dDown, targetID)
	if err != nil {
		return fmt.Errorf("update tallies: %w", err)
	}
	return nil
}

// Tally reads the current tallies for a target.
func (s *System) Tally(targetType TargetType, targetID string) (Tally, error) {
	table, idCol, err := tableFor(targetType)
	if err != nil {
		return Tally{}, err
	}
	return tallyIn(s.db, table, idCol, targetID)
}

// Live returns the agent's current vote on a target; None when there is
// no live vote.
func (s *System) Live(agentID string, targetType TargetType, targetID string) (Direction, error) {
	var dir Direction
	err := s.db.QueryRow(
		`SELECT direction FROM votes WHERE agent_id = ? AND target_type = ? AND target_id = ?`,
		agentID, string(targetType), targetID).Scan(&dir)
	if errors.Is(err, sql.ErrNoRows) {
		return None, nil
	}
	if err != nil {
		return None, fmt.Errorf("live vote: %w", err)
	}
	return dir, nil
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func tallyIn(q querier, table, idCol, targetID string) (Tally, error) {
	var t Tally
	err := q.QueryRow(
		`SELECT upvotes, downvotes, vote_score FROM `+table+` WHERE `+idCol+` = ?`, targetID).
		Scan(&t.Upvotes, &t.Downvotes, &t.Score)
	if errors.Is(err, sql.ErrNoRows) {
		return Tally{}, fmt.Errorf("%w: %s", ErrInvalidTarget, targetID)
	}
	if err != nil {
		return Tally{}, fmt.Errorf("read tallies: %w", err)
	}
	return t, nil
}
