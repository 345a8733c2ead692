package rating

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skillsarena/arena/internal/ledger"
	"github.com/skillsarena/arena/internal/storage"
)

func setup(t *testing.T) (*sql.DB, *ledger.Ledger, *Aggregator) {
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
	l := ledger.New(db)
	return db, l, New(db, l)
}

func seedUsage(t *testing.T, l *ledger.Ledger, agentID, skillID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := l.Add(agentID, skillID, 1.0, true, 10, 64); err != nil {
			t.Fatalf("seed usage: %v", err)
		}
	}
}

func TestSubmitRejectsOutOfRange(t *testing.T) {
	_, _, a := setup(t)

	for _, bad := range []float64{-1, 100.5, 1000} {
		if _, err := a.Submit("agent-1", "skill-a", bad, ""); !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %v: got %v, want ErrInvalidRating", bad, err)
		}
	}
}

func TestSubmitUsageGate(t *testing.T) {
	_, l, a := setup(t)

	seedUsage(t, l, "agent-1", "skill-a", MinUsage-1)
	if _, err := a.Submit("agent-1", "skill-a", 80, "solid"); !errors.Is(err, ErrInsufficientUsage) {
		t.Fatalf("4 invocations: got %v, want ErrInsufficientUsage", err)
	}

	// The fifth invocation crosses the floor.
	seedUsage(t, l, "agent-1", "skill-a", 1)
	rev, err := a.Submit("agent-1", "skill-a", 80, "solid")
	if err != nil {
		t.Fatalf("5 invocations: %v", err)
	}
	if rev.UsageAtSubmission != MinUsage {
		t.Fatalf("usage at submission = %d, want %d", rev.UsageAtSubmission, MinUsage)
	}
	if rev.Weight != 1.0 {
		t.Fatalf("weight = %v, want 1.0", rev.Weight)
	}
}

func TestWeightSchedule(t *testing.T) {
	cases := []struct {
		invocations int64
		want        float64
	}{
		{0, 0}, {4, 0},
		{5, 1.0}, {19, 1.0},
		{20, 1.5}, {49, 1.5},
		{50, 2.0}, {99, 2.0},
		{100, 3.0}, {5000, 3.0},
	}
	for _, c := range cases {
		if got := weightFor(c.invocations); got != c.want {
			t.Errorf("weightFor(%d) = %v, want %v", c.invocations, got, c.want)
		}
	}
}

func TestSubmitOncePerPair(t *testing.T) {
	_, l, a := setup(t)

	seedUsage(t, l, "agent-1", "skill-a", 10)
	if _, err := a.Submit("agent-1", "skill-a", 90, "great"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Submit("agent-1", "skill-a", 10, "changed my mind"); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("second submission: got %v, want ErrAlreadyReviewed", err)
	}

	// The original review is untouched.
	sum, err := a.CurrentRating("skill-a")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Reviews != 1 || sum.Weighted != 90 {
		t.Fatalf("summary after rejected overwrite: %+v", sum)
	}

	// Same agent remains free to review a different skill.
	seedUsage(t, l, "agent-1", "skill-b", 10)
	if _, err := a.Submit("agent-1", "skill-b", 70, ""); err != nil {
		t.Fatalf("review of second skill: %v", err)
	}
}

func TestCurrentRatingWeightedMean(t *testing.T) {
	_, l, a := setup(t)

	// weight 1.0 at 5 invocations, weight 3.0 at 100.
	seedUsage(t, l, "agent-1", "skill-a", 5)
	seedUsage(t, l, "agent-2", "skill-a", 100)
	if _, err := a.Submit("agent-1", "skill-a", 40, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Submit("agent-2", "skill-a", 80, ""); err != nil {
		t.Fatal(err)
	}

	sum, err := a.CurrentRating("skill-a")
	if err != nil {
		t.Fatal(err)
	}
	want := (40*1.0 + 80*3.0) / 4.0 // 70
	if math.Abs(sum.Weighted-want) > 1e-9 {
		t.Fatalf("weighted = %v, want %v", sum.Weighted, want)
	}
	if sum.Reviews != 2 || sum.Flagged != 0 {
		t.Fatalf("summary %+v", sum)
	}
}

func TestCurrentRatingNoReviews(t *testing.T) {
	_, _, a := setup(t)

	if _, err := a.CurrentRating("skill-unknown"); !errors.Is(err, ErrNoReviews) {
		t.Fatalf("got %v, want ErrNoReviews", err)
	}
}

func TestBySkillNewestFirst(t *testing.T) {
	_, l, a := setup(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		agent := fmt.Sprintf("agent-%d", i)
		seedUsage(t, l, agent, "skill-a", 10)
		a.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		if _, err := a.Submit(agent, "skill-a", float64(50+i), ""); err != nil {
			t.Fatal(err)
		}
	}

	reviews, err := a.BySkill("skill-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 3 {
		t.Fatalf("got %d reviews, want 3", len(reviews))
	}
	if reviews[0].AgentID != "agent-2" || reviews[2].AgentID != "agent-0" {
		t.Fatalf("ordering: %s, %s, %s", reviews[0].AgentID, reviews[1].AgentID, reviews[2].AgentID)
	}
}
