package rating

import (
	"fmt"
	"math"
	"testing"
	"time"
)

// submitAt seeds usage for a fresh skill and submits a review at the given
// instant, failing the test on any error.
func submitAt(t *testing.T, a *Aggregator, agentID, skillID string, rating float64, at time.Time) Review {
	t.Helper()
	a.now = func() time.Time { return at }
	rev, err := a.Submit(agentID, skillID, rating, "")
	if err != nil {
		t.Fatalf("submit %s/%s: %v", agentID, skillID, err)
	}
	return rev
}

func TestFlagsExtremeLowRun(t *testing.T) {
	_, l, a := setup(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		seedUsage(t, l, "agent-1", fmt.Sprintf("skill-%d", i), 10)
	}
	for i := 0; i < 3; i++ {
		rev := submitAt(t, a, "agent-1", fmt.Sprintf("skill-%d", i), 10, base.Add(time.Duration(i)*time.Hour))
		if rev.FlaggedAbusive {
			t.Fatalf("prior review %d flagged too early", i)
		}
	}

	rev := submitAt(t, a, "agent-1", "skill-3", 5, base.Add(4*time.Hour))
	if !rev.FlaggedAbusive {
		t.Fatal("fourth consecutive extreme-low review must be flagged")
	}
	if rev.Weight != 0.1 {
		t.Fatalf("flagged weight = %v, want 0.1", rev.Weight)
	}
}

func TestFlagsExtremeHighRun(t *testing.T) {
	_, l, a := setup(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		seedUsage(t, l, "agent-1", fmt.Sprintf("skill-%d", i), 10)
	}
	for i := 0; i < 3; i++ {
		submitAt(t, a, "agent-1", fmt.Sprintf("skill-%d", i), 99, base.Add(time.Duration(i)*time.Hour))
	}

	rev := submitAt(t, a, "agent-1", "skill-3", 100, base.Add(4*time.Hour))
	if !rev.FlaggedAbusive {
		t.Fatal("fourth consecutive extreme-high review must be flagged")
	}
}

func TestFlagsMostlyNegativeHistory(t *testing.T) {
	_, l, a := setup(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedUsage(t, l, "agent-1", fmt.Sprintf("skill-%d", i), 10)
	}
	// Mixed history that dodges the run heuristics but is three-quarters
	// below the negative cutoff.
	for i, r := range []float64{80, 35, 30, 20} {
		rev := submitAt(t, a, "agent-1", fmt.Sprintf("skill-%d", i), r, base.Add(time.Duration(i)*2*time.Minute))
		if rev.FlaggedAbusive {
			t.Fatalf("prior review %d (rating %v) flagged too early", i, r)
		}
	}

	rev := submitAt(t, a, "agent-1", "skill-4", 35, base.Add(8*time.Minute))
	if !rev.FlaggedAbusive {
		t.Fatal("negative submission on a mostly-negative history must be flagged")
	}
}

func TestFlagsSubmissionRate(t *testing.T) {
	_, l, a := setup(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedUsage(t, l, "agent-1", fmt.Sprintf("skill-%d", i), 10)
	}
	for i := 0; i < 4; i++ {
		rev := submitAt(t, a, "agent-1", fmt.Sprintf("skill-%d", i), 60, base.Add(time.Duration(i)*10*time.Second))
		if rev.FlaggedAbusive {
			t.Fatalf("prior review %d flagged too early", i)
		}
	}

	// Fifth review 50 seconds after the first: five reviews inside a minute.
	rev := submitAt(t, a, "agent-1", "skill-4", 60, base.Add(50*time.Second))
	if !rev.FlaggedAbusive {
		t.Fatal("burst of five reviews in under a minute must be flagged")
	}
}

func TestModeratePacedHistoryNotFlagged(t *testing.T) {
	_, l, a := setup(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		seedUsage(t, l, "agent-1", fmt.Sprintf("skill-%d", i), 10)
	}
	for i, r := range []float64{60, 75, 45, 88, 50, 70} {
		rev := submitAt(t, a, "agent-1", fmt.Sprintf("skill-%d", i), r, base.Add(time.Duration(i)*time.Hour))
		if rev.FlaggedAbusive {
			t.Fatalf("review %d (rating %v) wrongly flagged", i, r)
		}
	}
}

func TestFlaggedReviewStillCounts(t *testing.T) {
	_, l, a := setup(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		seedUsage(t, l, "agent-1", fmt.Sprintf("skill-%d", i), 10)
	}
	for i := 0; i < 3; i++ {
		submitAt(t, a, "agent-1", fmt.Sprintf("skill-%d", i), 10, base.Add(time.Duration(i)*time.Hour))
	}
	// An honest reviewer on the same skill.
	seedUsage(t, l, "agent-2", "skill-3", 10)
	submitAt(t, a, "agent-2", "skill-3", 90, base)

	flagged := submitAt(t, a, "agent-1", "skill-3", 0, base.Add(4*time.Hour))
	if !flagged.FlaggedAbusive {
		t.Fatal("expected flagged submission")
	}

	sum, err := a.CurrentRating("skill-3")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Reviews != 2 || sum.Flagged != 1 {
		t.Fatalf("summary %+v, want 2 reviews with 1 flagged", sum)
	}
	// (90*1.0 + 0*0.1) / 1.1: the flagged zero barely moves the mean.
	want := 90.0 / 1.1
	if math.Abs(sum.Weighted-want) > 1e-9 {
		t.Fatalf("weighted = %v, want %v", sum.Weighted, want)
	}
}
