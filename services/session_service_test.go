package services

import (
	"testing"
	"time"

	"game-hub-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartCreatesPlayingSession(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "gomoku", "board")

	session, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusPlaying, session.Status)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, game.ID, session.GameID)
	assert.JSONEq(t, `{}`, string(session.BoardState))
	// no override given, so the catalog default config is snapshotted
	assert.JSONEq(t, string(game.DefaultConfig), string(session.SessionConfig))
}

func TestStartHonorsConfigOverride(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "snake", "arcade")

	override := mustJSON(t, map[string]interface{}{"speed": "fast", "walls": false})
	session, err := svc.Sessions.Start("user-1", game.ID, override)
	require.NoError(t, err)
	assert.JSONEq(t, string(override), string(session.SessionConfig))
}

func TestStartResumesExistingPlayingSession(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "gomoku", "board")

	first, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)

	second, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "a second start while playing must resume, not duplicate")

	// once the first one is saved, a new start creates a fresh session
	_, err = svc.Sessions.Save("user-1", first.ID, SaveSessionInput{Status: models.SessionStatusSaved})
	require.NoError(t, err)

	third, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestStartUnknownOrInactiveGame(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "gomoku", "board")
	require.NoError(t, svc.DB.Model(&models.Game{}).Where("id = ?", game.ID).Update("is_active", false).Error)

	_, err := svc.Sessions.Start("user-1", "no-such-game", nil)
	assert.True(t, IsKind(err, ErrKindNotFound))

	_, err = svc.Sessions.Start("user-1", game.ID, nil)
	assert.True(t, IsKind(err, ErrKindNotFound), "inactive games cannot be started")
}

func TestSaveRoundTripsOpaqueBoardState(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "gomoku", "board")
	session, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)

	// deliberately odd document: the hub must store it without interpreting it
	board := mustJSON(t, map[string]interface{}{
		"cells":   []interface{}{nil, "x", "o", 3.5},
		"深さ":      9,
		"_secret": map[string]interface{}{"nested": []int{1, 2, 3}},
	})
	saved, err := svc.Sessions.Save("user-1", session.ID, SaveSessionInput{BoardState: board})
	require.NoError(t, err)
	assert.JSONEq(t, string(board), string(saved.BoardState))

	loaded, err := svc.Sessions.Load("user-1", session.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(board), string(loaded.BoardState))
}

func TestSaveMergesOnlyProvidedFields(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "snake", "arcade")
	session, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)

	score := int64(120)
	seconds := 45
	_, err = svc.Sessions.Save("user-1", session.ID, SaveSessionInput{Score: &score, PlayTimeSeconds: &seconds})
	require.NoError(t, err)

	// a later checkpoint with only a board must not clobber score or time
	board := mustJSON(t, map[string]interface{}{"length": 12})
	saved, err := svc.Sessions.Save("user-1", session.ID, SaveSessionInput{BoardState: board})
	require.NoError(t, err)

	assert.Equal(t, int64(120), saved.Score)
	assert.Equal(t, 45, saved.PlayTimeSeconds)
	assert.JSONEq(t, string(board), string(saved.BoardState))
	assert.Equal(t, models.SessionStatusPlaying, saved.Status, "checkpoint without status keeps the session playing")
}

func TestSaveStatusTransitions(t *testing.T) {
	cases := []struct {
		name       string
		before     string // status forced before the save
		request    string
		wantStatus string
		wantKind   ErrorKind
	}{
		{name: "playing to saved", before: models.SessionStatusPlaying, request: models.SessionStatusSaved, wantStatus: models.SessionStatusSaved},
		{name: "playing to abandoned", before: models.SessionStatusPlaying, request: models.SessionStatusAbandoned, wantStatus: models.SessionStatusAbandoned},
		{name: "saved to abandoned", before: models.SessionStatusSaved, request: models.SessionStatusAbandoned, wantStatus: models.SessionStatusAbandoned},
		{name: "completed rejects save", before: models.SessionStatusCompleted, request: models.SessionStatusSaved, wantKind: ErrKindInvalidTransition},
		{name: "abandoned rejects save", before: models.SessionStatusAbandoned, request: models.SessionStatusSaved, wantKind: ErrKindInvalidTransition},
		{name: "completed cannot be requested", before: models.SessionStatusPlaying, request: models.SessionStatusCompleted, wantKind: ErrKindValidation},
		{name: "garbage status", before: models.SessionStatusPlaying, request: "paused", wantKind: ErrKindValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestServices(t)
			game := seedGame(t, svc.DB, "gomoku", "board")
			session, err := svc.Sessions.Start("user-1", game.ID, nil)
			require.NoError(t, err)
			require.NoError(t, svc.DB.Model(&models.GameSession{}).
				Where("id = ?", session.ID).Update("status", tc.before).Error)

			saved, err := svc.Sessions.Save("user-1", session.ID, SaveSessionInput{Status: tc.request})
			if tc.wantKind != "" {
				assert.True(t, IsKind(err, tc.wantKind), "got err %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, saved.Status)
		})
	}
}

func TestCompleteFlipsStatusAndRecordsStats(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "tic-tac-toe", "board")
	session, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)

	completed, unlocks, err := svc.Sessions.Complete("user-1", session.ID, 1, 90)
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusCompleted, completed.Status)
	assert.Equal(t, int64(1), completed.Score)
	assert.Equal(t, 90, completed.PlayTimeSeconds)

	stats, err := svc.Stats.GetUserStats("user-1")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].TotalMatches)
	assert.Equal(t, int64(1), stats[0].TotalWins)
	assert.Equal(t, int64(1), stats[0].HighScore)

	codes := unlockCodes(unlocks)
	assert.Contains(t, codes, "FIRST_PLAY")
	assert.Contains(t, codes, "FIRST_WIN")
}

func TestCompleteTwiceDoesNotDoubleCount(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "tic-tac-toe", "board")
	session, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)

	_, _, err = svc.Sessions.Complete("user-1", session.ID, 1, 60)
	require.NoError(t, err)

	_, _, err = svc.Sessions.Complete("user-1", session.ID, 1, 60)
	assert.True(t, IsKind(err, ErrKindInvalidTransition), "got err %v", err)

	stats, err := svc.Stats.GetUserStats("user-1")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].TotalMatches, "the retry must not count a second match")
}

func TestCompleteFromSaved(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "gomoku", "board")
	session, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)
	_, err = svc.Sessions.Save("user-1", session.ID, SaveSessionInput{Status: models.SessionStatusSaved})
	require.NoError(t, err)

	completed, _, err := svc.Sessions.Complete("user-1", session.ID, 30, 120)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, completed.Status)
}

func TestCompleteAbandonedSession(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "gomoku", "board")
	session, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)
	_, err = svc.Sessions.Save("user-1", session.ID, SaveSessionInput{Status: models.SessionStatusAbandoned})
	require.NoError(t, err)

	_, _, err = svc.Sessions.Complete("user-1", session.ID, 30, 120)
	assert.True(t, IsKind(err, ErrKindInvalidTransition), "got err %v", err)

	stats, err := svc.Stats.GetUserStats("user-1")
	require.NoError(t, err)
	assert.Empty(t, stats, "abandoned sessions never reach the stats row")
}

func TestLoadTransitions(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "gomoku", "board")
	session, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)
	_, err = svc.Sessions.Save("user-1", session.ID, SaveSessionInput{Status: models.SessionStatusSaved})
	require.NoError(t, err)

	loaded, err := svc.Sessions.Load("user-1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPlaying, loaded.Status)

	_, _, err = svc.Sessions.Complete("user-1", session.ID, 10, 60)
	require.NoError(t, err)

	_, err = svc.Sessions.Load("user-1", session.ID)
	assert.True(t, IsKind(err, ErrKindInvalidTransition), "got err %v", err)
}

func TestSessionOwnershipIsOpaque(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "gomoku", "board")
	session, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)

	// another user probing a real session id sees the same not-found as a
	// missing id
	_, err = svc.Sessions.Load("user-2", session.ID)
	assert.True(t, IsKind(err, ErrKindNotFound), "got err %v", err)

	_, err = svc.Sessions.Load("user-1", "00000000-0000-0000-0000-000000000000")
	assert.True(t, IsKind(err, ErrKindNotFound), "got err %v", err)
}

func TestDeleteRequiresTerminalOrSaved(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "gomoku", "board")
	session, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)

	err = svc.Sessions.Delete("user-1", session.ID)
	assert.True(t, IsKind(err, ErrKindInvalidTransition), "got err %v", err)

	_, err = svc.Sessions.Save("user-1", session.ID, SaveSessionInput{Status: models.SessionStatusSaved})
	require.NoError(t, err)

	require.NoError(t, svc.Sessions.Delete("user-1", session.ID))

	_, err = svc.Sessions.Load("user-1", session.ID)
	assert.True(t, IsKind(err, ErrKindNotFound), "got err %v", err)
}

func TestListHistoryFiltersAndPaginates(t *testing.T) {
	svc := newTestServices(t)
	gomoku := seedGame(t, svc.DB, "gomoku", "board")
	snake := seedGame(t, svc.DB, "snake", "arcade")

	for i := 0; i < 3; i++ {
		s, err := svc.Sessions.Start("user-1", gomoku.ID, nil)
		require.NoError(t, err)
		_, _, err = svc.Sessions.Complete("user-1", s.ID, int64(i), 30)
		require.NoError(t, err)
	}
	s, err := svc.Sessions.Start("user-1", snake.ID, nil)
	require.NoError(t, err)
	_, err = svc.Sessions.Save("user-1", s.ID, SaveSessionInput{Status: models.SessionStatusSaved})
	require.NoError(t, err)

	// someone else's sessions never leak in
	_, err = svc.Sessions.Start("user-2", gomoku.ID, nil)
	require.NoError(t, err)

	all, total, err := svc.Sessions.ListHistory("user-1", HistoryFilters{}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, all, 4)

	completedOnly, total, err := svc.Sessions.ListHistory("user-1",
		HistoryFilters{GameID: gomoku.ID, Status: models.SessionStatusCompleted}, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	for _, row := range completedOnly {
		assert.Equal(t, models.SessionStatusCompleted, row.Status)
		assert.Equal(t, gomoku.ID, row.GameID)
	}

	page2, total, err := svc.Sessions.ListHistory("user-1", HistoryFilters{}, 2, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, page2, 1)
}

func TestSweepStaleSessions(t *testing.T) {
	svc := newTestServices(t)
	game := seedGame(t, svc.DB, "gomoku", "board")

	stale, err := svc.Sessions.Start("user-1", game.ID, nil)
	require.NoError(t, err)
	fresh, err := svc.Sessions.Start("user-2", game.ID, nil)
	require.NoError(t, err)
	parked, err := svc.Sessions.Start("user-3", game.ID, nil)
	require.NoError(t, err)
	_, err = svc.Sessions.Save("user-3", parked.ID, SaveSessionInput{Status: models.SessionStatusSaved})
	require.NoError(t, err)

	// backdate the stale one past the cutoff; UpdateColumn skips the
	// auto-update timestamp
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, svc.DB.Model(&models.GameSession{}).
		Where("id = ?", stale.ID).UpdateColumn("updated_at", past).Error)
	require.NoError(t, svc.DB.Model(&models.GameSession{}).
		Where("id = ?", parked.ID).UpdateColumn("updated_at", past).Error)

	swept, err := svc.Sessions.SweepStaleSessions(time.Now().Add(-6 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, swept)

	var got models.GameSession
	require.NoError(t, svc.DB.First(&got, "id = ?", stale.ID).Error)
	assert.Equal(t, models.SessionStatusAbandoned, got.Status)

	require.NoError(t, svc.DB.First(&got, "id = ?", fresh.ID).Error)
	assert.Equal(t, models.SessionStatusPlaying, got.Status, "recently touched sessions survive the sweep")

	require.NoError(t, svc.DB.First(&got, "id = ?", parked.ID).Error)
	assert.Equal(t, models.SessionStatusSaved, got.Status, "saved sessions are never swept")
}

func unlockCodes(unlocks []models.AchievementUnlock) []string {
	codes := make([]string, len(unlocks))
	for i, u := range unlocks {
		codes[i] = u.Code
	}
	return codes
}
