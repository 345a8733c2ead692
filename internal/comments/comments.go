// Package comments maintains the flat parent-pointer discussion tree
// attached to a skill. Depth and thread pointers are computed once, at
// creation, from the parent — never recomputed — so deletion has to be
// soft: the node stays, only its content is hidden.
package comments

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidTarget = errors.New("invalid comment target")
	ErrEmptyContent  = errors.New("comment content cannot be empty")
)

// Node is one comment. Depth is 0 for top-level nodes, parent.depth+1
// otherwise; ThreadID equals the root comment's ID for every node under
// the same top-level ancestor.
type Node struct {
	CommentID       string
	TargetID        string
	ParentCommentID string // empty for top-level
	RootCommentID   string
	ThreadID        string
	AuthorID        string
	Content         string
	Depth           int
	Replies         int64
	Deleted         bool
	Upvotes         int64
	Downvotes       int64
	VoteScore       int64
	CreatedAt       time.Time
}

// Thread is a node plus its resolved children, for nested rendering.
type Thread struct {
	Node
	Children []*Thread
}

// Resolver mediates comment creation and tree reads.
type Resolver struct {
	db *sql.DB
}

func New(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

// Add creates a comment or a reply. The parent, when given, must already
// exist and belong to the same target; its depth and thread pointers are
// inherited at this moment and fixed forever.
func (r *Resolver) Add(targetID, parentCommentID, authorID, content string) (Node, error) {
	if strings.TrimSpace(content) == "" {
		return Node{}, ErrEmptyContent
	}

	tx, err := r.db.Begin()
	if err != nil {
		return Node{}, fmt.Errorf("add comment: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM skills WHERE skill_id = ?`, targetID).Scan(&exists); err != nil {
		return Node{}, fmt.Errorf("add comment: %w", err)
	}
	if exists == 0 {
		return Node{}, fmt.Errorf("%w: skill %s", ErrInvalidTarget, targetID)
	}

	n := Node{
		CommentID: uuid.NewString(),
		TargetID:  targetID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if parentCommentID == "" {
		n.RootCommentID = n.CommentID
		n.ThreadID = n.CommentID
	} else {
		var parentTarget, parentRoot, parentThread string
		var parentDepth int
		err := tx.QueryRow(
			`SELECT target_id, root_comment_id, thread_id, depth FROM comments WHERE comment_id = ?`,
			parentCommentID).Scan(&parentTarget, &parentRoot, &parentThread, &parentDepth)
		if errors.Is(err, sql.ErrNoRows) {
			return Node{}, fmt.Errorf("%w: parent comment %s", ErrInvalidTarget, parentCommentID)
		}
		if err != nil {
			return Node{}, fmt.Errorf("add comment: %w", err)
		}
		if parentTarget != targetID {
			return Node{}, fmt.Errorf("%w: parent belongs to %s", ErrInvalidTarget, parentTarget)
		}
		n.ParentCommentID = parentCommentID
		n.RootCommentID = parentRoot
		n.ThreadID = parentThread
		n.Depth = parentDepth + 1
	}

	var parent any
	if n.ParentCommentID != "" {
		parent = n.ParentCommentID
	}
	if _, err := tx.Exec(`
		INSERT INTO comments (comment_id, target_id, parent_comment_id, root_comment_id, thread_id, author_id, content, depth, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.CommentID, n.TargetID, parent, n.RootCommentID, n.ThreadID,
		n.AuthorID, n.Content, n.Depth, n.CreatedAt); err != nil {
		return Node{}, fmt.Errorf("insert comment: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE skills SET comments_count = comments_count + 1 WHERE skill_id = ?`, targetID); err != nil {
		return Node{}, fmt.Errorf("bump comment count: %w", err)
	}
	if n.ParentCommentID != "" {
		if _, err := tx.Exec(
			`UPDATE comments SET replies_count = replies_count + 1 WHERE comment_id = ?`, n.ParentCommentID); err != nil {
			return Node{}, fmt.Errorf("bump reply count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Node{}, fmt.Errorf("add comment: %w", err)
	}
	return n, nil
}

// Delete soft-deletes a comment: the content is hidden, the node stays so
// descendant depth and thread pointers never dangle.
func (r *Resolver) Delete(commentID string) error {
	res, err := r.db.Exec(`UPDATE comments SET deleted = 1 WHERE comment_id = ?`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: comment %s", ErrInvalidTarget, commentID)
	}
	return nil
}

// List returns the target's comments as a flat forest ordered by
// (thread_id, depth, created_at). Deleted nodes appear with empty content.
func (r *Resolver) List(targetID string) ([]Node, error) {
	rows, err := r.db.Query(`
		SELECT comment_id, target_id, COALESCE(parent_comment_id, ''), root_comment_id, thread_id,
			author_id, content, depth, replies_count, deleted, upvotes, downvotes, vote_score, created_at
		FROM comments WHERE target_id = ?
		ORDER BY thread_id, depth, created_at`, targetID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []Node
	for rows.Next() {
		var n Node
		var deleted int
		if err := rows.Scan(&n.CommentID, &n.TargetID, &n.ParentCommentID, &n.RootCommentID,
			&n.ThreadID, &n.AuthorID, &n.Content, &n.Depth, &n.Replies, &deleted,
			&n.Upvotes, &n.Downvotes, &n.VoteScore, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		n.Deleted = deleted != 0
		if n.Deleted {
			n.Content = ""
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Tree resolves the flat forest into nested threads for display, each
// top-level node carrying its replies.
func (r *Resolver) Tree(targetID string) ([]*Thread, error) {
	flat, err := r.List(targetID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*Thread, len(flat))
	var roots []*Thread
	for i := range flat {
		byID[flat[i].CommentID] = &Thread{Node: flat[i]}
	}
	for i := range flat {
		t := byID[flat[i].CommentID]
		if t.ParentCommentID == "" {
			roots = append(roots, t)
			continue
		}
		if p, ok := byID[t.ParentCommentID]; ok {
			p.Children = append(p.Children, t)
		}
	}
	return roots, nil
}
