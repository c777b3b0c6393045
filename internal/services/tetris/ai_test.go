package tetris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
)

func TestEvaluateBoard(t *testing.T) {
	empty := tetris.NewBoard()
	assert.Equal(t, BoardFeatures{}, EvaluateBoard(&empty))
	assert.Equal(t, 0.0, EvaluateBoard(&empty).Score())

	b := tetris.NewBoard()
	b[bottom-1][0] = tetris.BlockGarbage // 下に穴がある
	fillBoardRow(&b, bottom-2, 0, 1, 2, 3, 4, 5, 6, 7, 8)
	f := EvaluateBoard(&b)

	assert.Equal(t, BoardFeatures{
		AggregateHeight: 2 + 3,
		Holes:           1 + 2,
		Bumpiness:       2 + 3,
		Lines:           0,
	}, f)
	assert.InDelta(t, -0.51*5-0.35*3-0.18*5, f.Score(), 1e-9)

	full := tetris.NewBoard()
	fillBoardRow(&full, bottom)
	assert.Equal(t, 1, EvaluateBoard(&full).Lines)
	assert.Equal(t, 0, EvaluateBoard(&full).Holes)
}

func TestFindBestMove_OOnEmptyBoard(t *testing.T) {
	e := newTestEngine(t, ControllerAI)
	e.current = tetris.NewPiece(tetris.TypeO)

	target, ok := e.findBestMove()
	require.True(t, ok)
	// 左端と右端の評価は同じなので、先に見つかる左端が選ばれる
	assert.Equal(t, 0, target.X)
	assert.Equal(t, tetris.BoardHeight-2, target.Y)

	assert.Equal(t, []Action{
		ActionMoveLeft, ActionMoveLeft, ActionMoveLeft, ActionMoveLeft, ActionHardDrop,
	}, e.moveSequence(target))
}

func TestFindBestMove_FillsWell(t *testing.T) {
	e := newTestEngine(t, ControllerAI)
	for y := bottom - 3; y <= bottom; y++ {
		fillBoardRow(&e.board, y, 6)
	}
	e.current = tetris.NewPiece(tetris.TypeI)

	target, ok := e.findBestMove()
	require.True(t, ok)
	assert.Equal(t, tetris.RotationRight, target.Rotation)
	assert.Equal(t, 4, target.X, "vertical I drops into column 6")
	assert.Equal(t, bottom-3, target.Y)
}

func TestFindBestMove_NoRoom(t *testing.T) {
	e := newTestEngine(t, ControllerAI)
	for y := 0; y < tetris.BoardHeight; y++ {
		fillBoardRow(&e.board, y)
	}
	_, ok := e.findBestMove()
	assert.False(t, ok)
}

func TestMoveSequence_RotatesClockwiseOnly(t *testing.T) {
	e := newTestEngine(t, ControllerAI)
	e.current = tetris.NewPiece(tetris.TypeT)

	target := e.current.WithRotation(tetris.RotationLeft)
	target.X = 6
	assert.Equal(t, []Action{
		ActionRotateCW, ActionRotateCW, ActionRotateCW,
		ActionMoveRight, ActionMoveRight, ActionMoveRight,
		ActionHardDrop,
	}, e.moveSequence(target))

	assert.Equal(t, []Action{ActionHardDrop}, e.moveSequence(e.current))
}

func TestUpdateAI_PlansAndDrainsOnePerTick(t *testing.T) {
	e := newTestEngine(t, ControllerAI)
	e.current = tetris.NewPiece(tetris.TypeO)

	e.Update(AIThinkInterval)
	assert.Empty(t, e.aiQueue, "does not think until the interval is exceeded")
	assert.Equal(t, 4, e.current.X)

	e.Update(time.Millisecond)
	assert.Len(t, e.aiQueue, 4)
	assert.Equal(t, 3, e.current.X)

	for i := 0; i < 3; i++ {
		e.Update(time.Millisecond)
	}
	assert.Equal(t, 0, e.current.X)
	assert.Equal(t, []Action{ActionHardDrop}, e.aiQueue)

	e.Update(time.Millisecond)
	assert.Empty(t, e.aiQueue)
	assert.Equal(t, tetris.BlockO, e.board[bottom][0])
	assert.Equal(t, tetris.BlockO, e.board[bottom][1])
	assert.Equal(t, tetris.BlockO, e.board[bottom-1][1])
}

func TestAI_PlaysUntilGameOverOrClearsLines(t *testing.T) {
	e := NewEngine(EngineConfig{Controller: ControllerAI, Seed: 7})
	for i := 0; i < 20000 && !e.IsGameOver(); i++ {
		e.Update(16 * time.Millisecond)
	}
	state := e.GetState()
	assert.Greater(t, state.Lines, 0)
	assert.Greater(t, state.Score, 0)
}
