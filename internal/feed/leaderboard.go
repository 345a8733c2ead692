package feed

import (
	"fmt"
	"sort"
)

// Leaderboard categories.
type Category string

const (
	Overall       Category = "overall"
	ByRating      Category = "rating"
	ByUsage       Category = "usage"
	ByReviews     Category = "reviews"
	ByUploaders   Category = "uploaders"
	overallUsage           = 1000.0 // invocation count treated as "full"
	overallShare           = 50.0   // review count treated as "full"
)

// LeaderboardRow is one ranked skill with the aggregates the ranking used.
type LeaderboardRow struct {
	Rank      int
	SkillID   string
	Name      string
	Version   string
	Rating    float64 // weighted mean, 0 when unrated
	Rated     bool
	Reviews   int64
	Usage     int64
	Uploaders int64
	Overall   float64
}

// Leaderboard ranks validated skills by a category. Overall blends the
// weighted rating with normalized usage and review volume, so a perfect
// rating from a ghost town cannot outrank a well-used skill.
func (r *Ranker) Leaderboard(category Category, limit int) ([]LeaderboardRow, error) {
	rows, err := r.db.Query(`
		SELECT s.skill_id, s.canonical_name, s.version,
			COALESCE((SELECT SUM(rv.rating * rv.weight) / SUM(rv.weight) FROM reviews rv WHERE rv.skill_id = s.skill_id), -1),
			(SELECT COUNT(*) FROM reviews rv WHERE rv.skill_id = s.skill_id),
			COALESCE((SELECT SUM(u.invocations) FROM usage_records u WHERE u.skill_id = s.skill_id), 0),
			(SELECT COUNT(*) FROM skill_uploaders su WHERE su.skill_id = s.skill_id)
		FROM skills s
		WHERE s.validated = 1 AND s.retired = 0`)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	defer rows.Close()

	var board []LeaderboardRow
	for rows.Next() {
		var lr LeaderboardRow
		var rawRating float64
		if err := rows.Scan(&lr.SkillID, &lr.Name, &lr.Version, &rawRating,
			&lr.Reviews, &lr.Usage, &lr.Uploaders); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		if rawRating >= 0 {
			lr.Rating = rawRating
			lr.Rated = true
		}
		lr.Overall = lr.Rating*0.5 +
			min(float64(lr.Usage)/overallUsage, 1.0)*30 +
			min(float64(lr.Reviews)/overallShare, 1.0)*20
		board = append(board, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var key func(a, b LeaderboardRow) bool
	switch category {
	case Overall:
		key = func(a, b LeaderboardRow) bool { return a.Overall > b.Overall }
	case ByRating:
		key = func(a, b LeaderboardRow) bool { return a.Rating > b.Rating }
	case ByUsage:
		key = func(a, b LeaderboardRow) bool { return a.Usage > b.Usage }
	case ByReviews:
		key = func(a, b LeaderboardRow) bool { return a.Reviews > b.Reviews }
	case ByUploaders:
		key = func(a, b LeaderboardRow) bool { return a.Uploaders > b.Uploaders }
	default:
		return nil, fmt.Errorf("unknown leaderboard category: %q", category)
	}
	sort.SliceStable(board, func(i, j int) bool { return key(board[i], board[j]) })

	if limit > 0 && limit < len(board) {
		board = board[:limit]
	}
	for i := range board {
		board[i].Rank = i + 1
	}
	return board, nil
}
