// services/leaderboard_service.go
package services

import (
	"errors"

	"game-hub-service/models"

	"gorm.io/gorm"
)

type LeaderboardScope string

const (
	ScopeGlobal  LeaderboardScope = "global"
	ScopeFriends LeaderboardScope = "friends"
	ScopeSelf    LeaderboardScope = "self"
)

type LeaderboardService struct {
	DB    *gorm.DB
	Games *GameService
}

func NewLeaderboardService(db *gorm.DB, games *GameService) *LeaderboardService {
	return &LeaderboardService{DB: db, Games: games}
}

// LeaderboardRow is one ranked entry. Score carries the ordering column's
// value, whichever column that is for the game.
type LeaderboardRow struct {
	Rank         int    `json:"rank"`
	UserID       string `json:"user_id"`
	Score        int64  `json:"score"`
	TotalMatches int64  `json:"total_matches"`
	TotalWins    int64  `json:"total_wins"`
}

type LeaderboardPage struct {
	Rows       []LeaderboardRow `json:"rows"`
	OrderedBy  string           `json:"ordered_by"` // rank_points | high_score
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	TotalItems int64            `json:"total_items"`
	TotalPages int              `json:"total_pages"`
}

// orderColumn picks the ranking column by game category: cumulative
// rank_points for competitive games, watermark high_score otherwise.
func orderColumn(game *models.Game) string {
	if models.IsCompetitiveGame(game.Slug) {
		return "rank_points"
	}
	return "high_score"
}

// Leaderboard returns one page of the ranked view over UserGameStats for a
// game. Ties break on user_id ascending so pagination is reproducible. The
// friends scope is the requester's accepted-friend set UNION the requester —
// never an intersection — so users always see their own row there.
func (s *LeaderboardService) Leaderboard(gameID string, scope LeaderboardScope, requesterID string, page, limit int) (*LeaderboardPage, error) {
	game, err := s.Games.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	column := orderColumn(game)

	q := s.DB.Model(&models.UserGameStats{}).Where("game_id = ?", game.ID)
	switch scope {
	case ScopeGlobal, "":
	case ScopeFriends:
		q = q.Where("(user_id IN (SELECT friend_id FROM friend_mirrors WHERE user_id = ?) OR user_id = ?)",
			requesterID, requesterID)
	case ScopeSelf:
		q = q.Where("user_id = ?", requesterID)
	default:
		return nil, ValidationErr("scope must be one of global, friends, self")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (page - 1) * limit
	var stats []models.UserGameStats
	if err := q.Order(column + " DESC").Order("user_id ASC").
		Limit(limit).Offset(offset).
		Find(&stats).Error; err != nil {
		return nil, err
	}

	rows := make([]LeaderboardRow, len(stats))
	for i, st := range stats {
		score := st.HighScore
		if column == "rank_points" {
			score = st.RankPoints
		}
		rows[i] = LeaderboardRow{
			Rank:         offset + i + 1,
			UserID:       st.UserID,
			Score:        score,
			TotalMatches: st.TotalMatches,
			TotalWins:    st.TotalWins,
		}
	}

	return &LeaderboardPage{
		Rows:       rows,
		OrderedBy:  column,
		Page:       page,
		Size:       limit,
		TotalItems: total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// MyRankResult reports the requester's dense rank. Rank is nil when the user
// has no stats row yet — "not ranked" is an expected state, never an error.
type MyRankResult struct {
	Rank  *int  `json:"rank"`
	Score int64 `json:"score"`
}

// MyRank computes the user's dense rank among all users of a game: one plus
// the number of distinct ordering values strictly greater than theirs.
func (s *LeaderboardService) MyRank(userID, gameID string) (*MyRankResult, error) {
	game, err := s.Games.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	column := orderColumn(game)

	var row models.UserGameStats
	if err := s.DB.Where("user_id = ? AND game_id = ?", userID, game.ID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &MyRankResult{Rank: nil}, nil
		}
		return nil, err
	}

	score := row.HighScore
	if column == "rank_points" {
		score = row.RankPoints
	}

	var higher int64
	if err := s.DB.Model(&models.UserGameStats{}).
		Where("game_id = ?", game.ID).
		Where(column+" > ?", score).
		Distinct(column).
		Count(&higher).Error; err != nil {
		return nil, err
	}

	rank := int(higher) + 1
	return &MyRankResult{Rank: &rank, Score: score}, nil
}
