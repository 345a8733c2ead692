// Package ledger accumulates per-(agent, skill) usage telemetry: invocation
// and success counters plus running mean/variance of execution time and
// running means of CPU and memory.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
)

// ErrNoRecord is returned when no usage has ever been reported for a key.
var ErrNoRecord = errors.New("no usage recorded")

// Record is the accumulated state for one (agent, skill) pair. Counters only
// ever grow; there is no reset path.
type Record struct {
	AgentID     string
	SkillID     string
	Invocations int64
	Successes   int64
	TimeMean    float64
	timeM2      float64
	CPUMean     float64
	MemMean     float64
}

// TimeStddev is the population standard deviation of execution time.
func (r Record) TimeStddev() float64 {
	if r.Invocations == 0 {
		return 0
	}
	return math.Sqrt(r.timeM2 / float64(r.Invocations))
}

// Aggregate is the cross-agent view of one skill's usage.
type Aggregate struct {
	SkillID     string
	Agents      int
	Invocations int64
	Successes   int64
	TimeMean    float64
	TimeStddev  float64
	CPUMean     float64
	MemMean     float64
}

// Ledger is the write and read surface over usage_records.
type Ledger struct {
	db *sql.DB
}

func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Add folds one invocation sample into the (agent, skill) record.
//
// The whole Welford update happens inside a single upsert: every SET
// expression reads the pre-update row, so concurrent or out-of-order reports
// from the same agent accumulate commutatively instead of losing updates to
// read-modify-write races.
func (l *Ledger) Add(agentID, skillID string, execSeconds float64, success bool, cpuPct, memMB float64) error {
	if agentID == "" || skillID == "" {
		return fmt.Errorf("usage add: agent and skill are required")
	}
	for _, v := range []float64{execSeconds, cpuPct, memMB} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("usage add: sample values must be finite and non-negative")
		}
	}
	succ := 0
	if success {
		succ = 1
	}
	_, err := l.db.Exec(`
		INSERT INTO usage_records (agent_id, skill_id, invocations, successes, time_mean, time_m2, cpu_mean, mem_mean)
		VALUES (?, ?, 1, ?, ?, 0, ?, ?)
		ON CONFLICT(agent_id, skill_id) DO UPDATE SET
			invocations = invocations + 1,
			successes   = successes + excluded.successes,
			time_m2     = time_m2 + (excluded.time_mean - time_mean) * (excluded.time_mean - (time_mean + (excluded.time_mean - time_mean) / (invocations + 1))),
			time_mean   = time_mean + (excluded.time_mean - time_mean) / (invocations + 1),
			cpu_mean    = cpu_mean + (excluded.cpu_mean - cpu_mean) / (invocations + 1),
			mem_mean    = mem_mean + (excluded.mem_mean - mem_mean) / (invocations + 1),
			updated_at  = CURRENT_TIMESTAMP`,
		agentID, skillID, succ, execSeconds, cpuPct, memMB)
	if err != nil {
		return fmt.Errorf("usage add: %w", err)
	}
	return nil
}

// Get returns the record for one (agent, skill) pair.
func (l *Ledger) Get(agentID, skillID string) (Record, error) {
	var r Record
	err := l.db.QueryRow(`
		SELECT agent_id, skill_id, invocations, successes, time_mean, time_m2, cpu_mean, mem_mean
		FROM usage_records WHERE agent_id = ? AND skill_id = ?`,
		agentID, skillID).
		Scan(&r.AgentID, &r.SkillID, &r.Invocations, &r.Successes, &r.TimeMean, &r.timeM2, &r.CPUMean, &r.MemMean)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNoRecord
	}
	if err != nil {
		return Record{}, fmt.Errorf("usage get: %w", err)
	}
	return r, nil
}

// Invocations returns the invocation count for a pair; zero when nothing
// was ever reported.
func (l *Ledger) Invocations(agentID, skillID string) (int64, error) {
	r, err := l.Get(agentID, skillID)
	if errors.Is(err, ErrNoRecord) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return r.Invocations, nil
}

// SkillAggregate merges every agent's record for a skill into one view.
// Means and variances combine with the parallel-variance merge, so the
// result is identical to having streamed all samples into one record.
func (l *Ledger) SkillAggregate(skillID string) (Aggregate, error) {
	rows, err := l.db.Query(`
		SELECT agent_id, skill_id, invocations, successes, time_mean, time_m2, cpu_mean, mem_mean
		FROM usage_records WHERE skill_id = ?`, skillID)
	if err != nil {
		return Aggregate{}, fmt.Errorf("usage aggregate: %w", err)
	}
	defer rows.Close()

	agg := Aggregate{SkillID: skillID}
	var mean, m2 float64
	var cpuSum, memSum float64 // invocation-weighted
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.AgentID, &r.SkillID, &r.Invocations, &r.Successes,
			&r.TimeMean, &r.timeM2, &r.CPUMean, &r.MemMean); err != nil {
			return Aggregate{}, fmt.Errorf("usage aggregate: %w", err)
		}
		if r.Invocations == 0 {
			continue
		}
		na, nb := float64(agg.Invocations), float64(r.Invocations)
		delta := r.TimeMean - mean
		mean += delta * nb / (na + nb)
		m2 += r.timeM2 + delta*delta*na*nb/(na+nb)

		cpuSum += r.CPUMean * nb
		memSum += r.MemMean * nb

		agg.Agents++
		agg.Invocations += r.Invocations
		agg.Successes += r.Successes
	}
	if err := rows.Err(); err != nil {
		return Aggregate{}, err
	}
	if agg.Invocations == 0 {
		return Aggregate{}, ErrNoRecord
	}
	agg.TimeMean = mean
	agg.TimeStddev = math.Sqrt(m2 / float64(agg.Invocations))
	agg.CPUMean = cpuSum / float64(agg.Invocations)
	agg.MemMean = memSum / float64(agg.Invocations)
	return agg, nil
}
