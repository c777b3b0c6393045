package tetris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
)

// forceGameOver は出現位置を塞いでからピースを出し、エンジンをゲームオーバーにします。
func forceGameOver(e *Engine) {
	fillBoardRow(&e.board, 0)
	fillBoardRow(&e.board, 1)
	e.spawnNext()
}

func TestParseMatchMode(t *testing.T) {
	tests := []struct {
		in      string
		want    MatchMode
		wantErr bool
	}{
		{"", MatchModeMarathon, false},
		{"marathon", MatchModeMarathon, false},
		{"vs_ai", MatchModeVsAI, false},
		{"versus", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMatchMode(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidMode, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewMatch(t *testing.T) {
	m := NewMatch(MatchConfig{ID: "m1", UserID: "u1", Mode: MatchModeMarathon, Seed: 1})
	assert.Equal(t, MatchWaiting, m.Status)
	assert.Nil(t, m.Opponent)
	assert.Equal(t, ControllerHuman, m.Player.Controller())

	vs := NewMatch(MatchConfig{ID: "m2", UserID: "u1", Mode: MatchModeVsAI, Seed: 1})
	require.NotNil(t, vs.Opponent)
	assert.Equal(t, ControllerAI, vs.Opponent.Controller())

	snap := vs.Snapshot()
	assert.NotNil(t, snap.Opponent)
	assert.Nil(t, snap.StartedAt)
	assert.Nil(t, snap.EndedAt)
}

func TestMatch_StepOnlyWhilePlaying(t *testing.T) {
	m := NewMatch(MatchConfig{ID: "m1", UserID: "u1", Mode: MatchModeMarathon, Seed: 1})
	m.Player.current = tetris.NewPiece(tetris.TypeT)

	assert.False(t, m.Step(time.Second), "waiting")
	assert.Equal(t, 1, m.Player.current.Y)

	m.Start()
	assert.Equal(t, MatchPlaying, m.Status)
	assert.True(t, m.Step(time.Second))
	assert.Equal(t, 2, m.Player.current.Y)

	m.TogglePause()
	assert.Equal(t, MatchPaused, m.Status)
	assert.False(t, m.Step(time.Second))
	m.HandleKey(true, "Space")
	assert.Equal(t, 2, m.Player.current.Y, "keys are ignored while paused")

	m.TogglePause()
	assert.Equal(t, MatchPlaying, m.Status)
	assert.True(t, m.Step(time.Second))
	assert.Equal(t, 3, m.Player.current.Y)
}

func TestMatch_MarathonEndsOnGameOver(t *testing.T) {
	m := NewMatch(MatchConfig{ID: "m1", UserID: "u1", Mode: MatchModeMarathon, Seed: 1})
	m.Start()
	forceGameOver(m.Player)

	m.Step(time.Millisecond)
	assert.Equal(t, MatchFinished, m.Status)
	assert.Empty(t, m.Winner)
	assert.False(t, m.EndedAt.IsZero())

	r := m.Result()
	assert.Equal(t, "u1", r.UserID)
	assert.Equal(t, "marathon", r.Mode)
	assert.Equal(t, 1, r.Level)
}

func TestMatch_VsAIWinner(t *testing.T) {
	m := NewMatch(MatchConfig{ID: "m1", UserID: "u1", Mode: MatchModeVsAI, Seed: 1})
	m.Start()
	forceGameOver(m.Opponent)
	m.Step(time.Millisecond)
	assert.Equal(t, MatchFinished, m.Status)
	assert.Equal(t, WinnerPlayer, m.Winner)

	m.Restart()
	assert.Equal(t, MatchPlaying, m.Status)
	assert.Empty(t, m.Winner)
	assert.True(t, m.EndedAt.IsZero())
	assert.False(t, m.Opponent.IsGameOver())

	forceGameOver(m.Player)
	m.Step(time.Millisecond)
	assert.Equal(t, WinnerAI, m.Winner)
}

func TestMatch_HardDropCanFinish(t *testing.T) {
	m := NewMatch(MatchConfig{ID: "m1", UserID: "u1", Mode: MatchModeMarathon, Seed: 1})
	m.Start()
	// 2行目から下を左端以外すべて埋め、最上段の O を固定すると次のピースが出せなくなる
	for y := 2; y < tetris.BoardHeight; y++ {
		fillBoardRow(&m.Player.board, y, 0)
	}
	m.Player.current = tetris.NewPiece(tetris.TypeO)
	require.True(t, m.Player.board.IsValid(m.Player.current))

	m.HandleKey(true, "Space")
	assert.True(t, m.Player.IsGameOver())
	assert.Equal(t, MatchFinished, m.Status)
}

func TestMatch_Abandon(t *testing.T) {
	waiting := NewMatch(MatchConfig{ID: "m1", UserID: "u1", Mode: MatchModeVsAI, Seed: 1})
	waiting.Abandon()
	assert.Equal(t, MatchWaiting, waiting.Status)

	m := NewMatch(MatchConfig{ID: "m2", UserID: "u1", Mode: MatchModeVsAI, Seed: 1})
	m.Start()
	m.Abandon()
	assert.Equal(t, MatchFinished, m.Status)
	assert.Equal(t, WinnerAI, m.Winner)
}
