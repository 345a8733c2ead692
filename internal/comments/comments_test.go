package comments

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skillsarena/arena/internal/storage"
)

func setup(t *testing.T) (*sql.DB, *Resolver) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	if err := storage.Migrate(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db, New(db)
}

func seedSkill(t *testing.T, db *sql.DB, skillID string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO skills (skill_id, canonical_name, content_hash, version, created_at)
		VALUES (?, ?, ?, '1.0.0', ?)`,
		skillID, skillID, "hash-"+skillID, time.Now().UTC())
	if err != nil {
		t.Fatalf("seed skill: %v", err)
	}
}

func TestAddTopLevel(t *testing.T) {
	db, r := setup(t)
	seedSkill(t, db, "skill-a")

	n, err := r.Add("skill-a", "", "agent-1", "works well on long inputs")
	if err != nil {
		t.Fatal(err)
	}
	if n.Depth != 0 {
		t.Fatalf("depth = %d, want 0", n.Depth)
	}
	if n.RootCommentID != n.CommentID || n.ThreadID != n.CommentID {
		t.Fatalf("top-level node must anchor its own thread: %+v", n)
	}

	var count int
	if err := db.QueryRow(`SELECT comments_count FROM skills WHERE skill_id = 'skill-a'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("comments_count = %d, want 1", count)
	}
}

func TestRepliesInheritThread(t *testing.T) {
	db, r := setup(t)
	seedSkill(t, db, "skill-a")

	root, err := r.Add("skill-a", "", "agent-1", "root")
	if err != nil {
		t.Fatal(err)
	}
	child, err := r.Add("skill-a", root.CommentID, "agent-2", "reply")
	if err != nil {
		t.Fatal(err)
	}
	grand, err := r.Add("skill-a", child.CommentID, "agent-3", "deeper")
	if err != nil {
		t.Fatal(err)
	}

	if child.Depth != 1 || grand.Depth != 2 {
		t.Fatalf("depths %d, %d, want 1, 2", child.Depth, grand.Depth)
	}
	for _, n := range []Node{child, grand} {
		if n.RootCommentID != root.CommentID || n.ThreadID != root.CommentID {
			t.Fatalf("thread pointers not inherited: %+v", n)
		}
	}

	// Reply counts track direct children only.
	flat, err := r.List("skill-a")
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]int64{}
	for _, n := range flat {
		counts[n.CommentID] = n.Replies
	}
	if counts[root.CommentID] != 1 || counts[child.CommentID] != 1 || counts[grand.CommentID] != 0 {
		t.Fatalf("reply counts %v", counts)
	}
}

func TestAddValidation(t *testing.T) {
	db, r := setup(t)
	seedSkill(t, db, "skill-a")
	seedSkill(t, db, "skill-b")

	if _, err := r.Add("skill-a", "", "agent-1", "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("blank content: got %v", err)
	}
	if _, err := r.Add("skill-missing", "", "agent-1", "hi"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("unknown skill: got %v", err)
	}
	if _, err := r.Add("skill-a", "comment-missing", "agent-1", "hi"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("unknown parent: got %v", err)
	}

	// Parent on a different skill is not a valid attach point.
	other, err := r.Add("skill-b", "", "agent-1", "elsewhere")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Add("skill-a", other.CommentID, "agent-1", "hi"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("cross-skill parent: got %v", err)
	}

	// Failed adds leave the count unchanged.
	var count int
	if err := db.QueryRow(`SELECT comments_count FROM skills WHERE skill_id = 'skill-a'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("comments_count = %d, want 0", count)
	}
}

func TestSoftDelete(t *testing.T) {
	db, r := setup(t)
	seedSkill(t, db, "skill-a")

	root, err := r.Add("skill-a", "", "agent-1", "hot take")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Add("skill-a", root.CommentID, "agent-2", "disagree"); err != nil {
		t.Fatal(err)
	}

	if err := r.Delete(root.CommentID); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete("comment-missing"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("unknown comment: got %v", err)
	}

	flat, err := r.List("skill-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 2 {
		t.Fatalf("soft delete must keep the node: %d rows", len(flat))
	}
	if !flat[0].Deleted || flat[0].Content != "" {
		t.Fatalf("deleted node leaked content: %+v", flat[0])
	}
	if flat[1].Deleted || flat[1].Content != "disagree" {
		t.Fatalf("reply affected by parent delete: %+v", flat[1])
	}
}

func TestListOrdering(t *testing.T) {
	db, r := setup(t)
	seedSkill(t, db, "skill-a")

	r1, _ := r.Add("skill-a", "", "agent-1", "thread one")
	r2, _ := r.Add("skill-a", "", "agent-2", "thread two")
	c1, err := r.Add("skill-a", r1.CommentID, "agent-3", "reply in one")
	if err != nil {
		t.Fatal(err)
	}

	flat, err := r.List("skill-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 3 {
		t.Fatalf("rows = %d", len(flat))
	}
	// Grouped by thread, shallow before deep within each.
	pos := map[string]int{}
	for i, n := range flat {
		pos[n.CommentID] = i
	}
	if pos[c1.CommentID] != pos[r1.CommentID]+1 {
		t.Fatalf("reply not adjacent to its thread root: %v", pos)
	}
	_ = r2
}

func TestTreeNesting(t *testing.T) {
	db, r := setup(t)
	seedSkill(t, db, "skill-a")

	root1, _ := r.Add("skill-a", "", "agent-1", "first")
	root2, _ := r.Add("skill-a", "", "agent-2", "second")
	child, err := r.Add("skill-a", root1.CommentID, "agent-3", "reply")
	if err != nil {
		t.Fatal(err)
	}
	grand, err := r.Add("skill-a", child.CommentID, "agent-4", "nested reply")
	if err != nil {
		t.Fatal(err)
	}

	roots, err := r.Tree("skill-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(roots))
	}
	byID := map[string]*Thread{}
	for _, th := range roots {
		byID[th.CommentID] = th
	}
	r1 := byID[root1.CommentID]
	if r1 == nil || len(r1.Children) != 1 || r1.Children[0].CommentID != child.CommentID {
		t.Fatalf("nesting under first root broken")
	}
	if len(r1.Children[0].Children) != 1 || r1.Children[0].Children[0].CommentID != grand.CommentID {
		t.Fatalf("second-level nesting broken")
	}
	if r2 := byID[root2.CommentID]; r2 == nil || len(r2.Children) != 0 {
		t.Fatalf("second root polluted")
	}
}
