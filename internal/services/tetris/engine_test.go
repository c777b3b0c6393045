package tetris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
)

func newTestEngine(t *testing.T, c Controller) *Engine {
	t.Helper()
	return NewEngine(EngineConfig{Controller: c, Seed: 42})
}

// fillBoardRow は y 行目を except の列以外すべて埋めます。
func fillBoardRow(b *tetris.Board, y int, except ...int) {
	skip := make(map[int]bool, len(except))
	for _, x := range except {
		skip[x] = true
	}
	for x := 0; x < tetris.BoardWidth; x++ {
		if !skip[x] {
			b[y][x] = tetris.BlockGarbage
		}
	}
}

// lockAt は p を操作中のピースにして、その場で固定します。
func lockAt(e *Engine, p tetris.Piece) {
	e.current = p
	e.lockPiece()
}

func TestNewEngine_InitialState(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	state := e.GetState()

	assert.True(t, state.Board.IsEmpty())
	assert.Equal(t, 0, state.Score)
	assert.Equal(t, 1, state.Level)
	assert.Equal(t, 0, state.Lines)
	assert.False(t, state.GameOver)
	assert.Equal(t, 0, state.Combo)
	assert.Equal(t, 0, state.B2B)
	assert.Nil(t, state.HeldPiece)
	assert.True(t, state.CanHold)
	assert.Len(t, state.NextPieces, PreviewSize)
	assert.Equal(t, tetris.RotationSpawn, state.CurrentPiece.Rotation)
	assert.Equal(t, ControllerHuman, e.Controller())
}

func TestEngine_Reset(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	fillBoardRow(&e.board, tetris.BoardHeight-1, 0)
	e.score = 1234
	e.level = 5
	e.lines = 40
	e.combo = 3
	e.b2b = 2
	e.hold()
	e.HandleKeyDown("ArrowDown")

	e.Reset()
	state := e.GetState()

	assert.True(t, state.Board.IsEmpty())
	assert.Equal(t, 0, state.Score)
	assert.Equal(t, 1, state.Level)
	assert.Equal(t, 0, state.Lines)
	assert.Equal(t, 0, state.Combo)
	assert.Equal(t, 0, state.B2B)
	assert.Equal(t, 0, state.Pieces)
	assert.Nil(t, state.HeldPiece)
	assert.True(t, state.CanHold)
	assert.False(t, e.softDrop)
	assert.Empty(t, e.keysDown)
}

func TestEngine_GhostPiece(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	e.current = tetris.NewPiece(tetris.TypeT)

	state := e.GetState()
	assert.Equal(t, e.current.X, state.GhostPiece.X)
	assert.Equal(t, tetris.BoardHeight-2, state.GhostPiece.Y)
	// ゴーストは状態を変えない
	assert.Equal(t, 1, e.current.Y)

	e.board[tetris.BoardHeight-1][4] = tetris.BlockGarbage
	assert.Equal(t, tetris.BoardHeight-3, e.GetState().GhostPiece.Y)
}

func TestEngine_GetStateIsSnapshot(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	state := e.GetState()
	state.Board[tetris.BoardHeight-1][0] = tetris.BlockGarbage
	state.NextPieces[0] = tetris.TypeZ

	assert.True(t, e.board.IsEmpty())
	assert.Equal(t, e.GetState(), e.GetState())
}

func TestEngine_Move(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	e.current = tetris.NewPiece(tetris.TypeO)

	assert.True(t, e.move(-1, 0))
	assert.Equal(t, 3, e.current.X)

	e.current.X = 0
	assert.False(t, e.move(-1, 0))
	assert.Equal(t, 0, e.current.X)

	e.current.X = tetris.BoardWidth - 2
	assert.False(t, e.move(1, 0))
}

func TestEngine_RotateFullCircle(t *testing.T) {
	for _, pt := range []tetris.PieceType{tetris.TypeT, tetris.TypeI, tetris.TypeS, tetris.TypeL} {
		e := newTestEngine(t, ControllerHuman)
		start := tetris.NewPiece(pt).Moved(0, 8)
		e.current = start

		for i := 1; i <= 4; i++ {
			require.True(t, e.rotate(true), "%s rotation %d", pt, i)
			assert.Equal(t, tetris.Rotation(i%4), e.current.Rotation)
		}
		assert.Equal(t, start, e.current)

		for i := 0; i < 4; i++ {
			require.True(t, e.rotate(false))
		}
		assert.Equal(t, start, e.current)
	}
}

func TestEngine_RotateO(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	e.current = tetris.NewPiece(tetris.TypeO)
	before := e.current

	assert.False(t, e.rotate(true))
	assert.False(t, e.rotate(false))
	assert.Equal(t, before, e.current)
}

func TestEngine_WallKick(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	// R 状態の T は左の列が空なので x=-1 に置ける
	e.current = tetris.NewPiece(tetris.TypeT).WithRotation(tetris.RotationRight)
	e.current.X = -1
	e.current.Y = 10
	require.True(t, e.board.IsValid(e.current))

	assert.True(t, e.rotate(true))
	assert.Equal(t, tetris.RotationFlip, e.current.Rotation)
	assert.Equal(t, 0, e.current.X, "kicked one column to the right")
	assert.Equal(t, 10, e.current.Y)
	assert.True(t, e.lastMoveWasRotation)

	// 移動すると回転フラグは消える
	e.move(1, 0)
	assert.False(t, e.lastMoveWasRotation)
}

func TestEngine_RotateBlocked(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	for y := 0; y < tetris.BoardHeight; y++ {
		fillBoardRow(&e.board, y, 3, 4, 5)
	}
	// 幅3の縦穴では横向きの I は作れない
	e.current = tetris.NewPiece(tetris.TypeI).WithRotation(tetris.RotationRight)
	e.current.X = 2
	e.current.Y = 10
	require.True(t, e.board.IsValid(e.current))

	before := e.current
	assert.False(t, e.rotate(true))
	assert.Equal(t, before, e.current)
}

func TestEngine_LockDelay(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	e.current = tetris.NewPiece(tetris.TypeO).Moved(0, tetris.BoardHeight-2)

	e.Update(499 * time.Millisecond)
	assert.True(t, e.board.IsEmpty(), "not locked before 500ms")
	assert.Equal(t, tetris.TypeO, e.current.Type)

	e.Update(time.Millisecond)
	assert.Equal(t, tetris.BlockO, e.board[tetris.BoardHeight-1][4])
	assert.Equal(t, tetris.BlockO, e.board[tetris.BoardHeight-2][5])
	assert.Equal(t, 0, e.lockResets)
}

func TestEngine_LockDelayResetCap(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	e.current = tetris.NewPiece(tetris.TypeO).Moved(0, tetris.BoardHeight-2)

	dirs := []Action{ActionMoveLeft, ActionMoveRight}
	for i := 0; i < MaxLockResets; i++ {
		e.Update(400 * time.Millisecond)
		require.True(t, e.board.IsEmpty(), "locked too early at reset %d", i)
		require.True(t, e.applyAction(dirs[i%2]))
	}
	assert.Equal(t, MaxLockResets, e.lockResets)

	// 上限に達した後の移動では猶予は延びない
	e.Update(400 * time.Millisecond)
	require.True(t, e.applyAction(ActionMoveLeft))
	e.Update(99 * time.Millisecond)
	assert.True(t, e.board.IsEmpty())

	e.Update(time.Millisecond)
	assert.False(t, e.board.IsEmpty())
}

func TestEngine_AirborneMoveDoesNotConsumeResets(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	e.current = tetris.NewPiece(tetris.TypeT).Moved(0, 5)

	e.move(1, 0)
	e.rotate(true)
	assert.Equal(t, 0, e.lockResets)
}

func TestEngine_Gravity(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	e.current = tetris.NewPiece(tetris.TypeT)

	e.Update(999 * time.Millisecond)
	assert.Equal(t, 1, e.current.Y)
	e.Update(time.Millisecond)
	assert.Equal(t, 2, e.current.Y)
	assert.Equal(t, time.Duration(0), e.gravityTimer)
}

func TestEngine_Hold(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	first := e.current.Type
	next := e.randomizer.Preview()[0]
	e.move(1, 0)

	assert.True(t, e.hold())
	require.NotNil(t, e.held)
	assert.Equal(t, tetris.NewPiece(first), *e.held, "held piece returns to its spawn pose")
	assert.Equal(t, next, e.current.Type)
	assert.False(t, e.GetState().CanHold)

	// 同じピースで2回目のホールドはできない
	current := e.current
	assert.False(t, e.hold())
	assert.Equal(t, current, e.current)
	assert.Equal(t, first, e.held.Type)

	// 次のピースでは入れ替えになる
	e.hardDrop()
	assert.True(t, e.GetState().CanHold)
	swapped := e.current.Type
	assert.True(t, e.hold())
	assert.Equal(t, tetris.NewPiece(first), e.current)
	assert.Equal(t, swapped, e.held.Type)
	assert.False(t, e.canHold)
}

func TestEngine_HardDrop(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	e.current = tetris.NewPiece(tetris.TypeI)

	assert.True(t, e.hardDrop())
	assert.Equal(t, 1, e.GetState().Pieces)
	for x := 3; x <= 6; x++ {
		assert.Equal(t, tetris.BlockI, e.board[tetris.BoardHeight-1][x])
	}
	assert.True(t, e.canHold)
}

func TestEngine_GameOver(t *testing.T) {
	e := newTestEngine(t, ControllerHuman)
	for x := 3; x <= 6; x++ {
		e.board[1][x] = tetris.BlockGarbage
	}
	e.spawnNext()
	require.True(t, e.IsGameOver())

	before := e.GetState()
	e.Update(5 * time.Second)
	e.HandleKeyDown("Space")
	assert.Equal(t, before, e.GetState())
	assert.True(t, e.GetState().GameOver)

	e.Reset()
	assert.False(t, e.IsGameOver())
}

func TestEngine_SameSeedIsDeterministic(t *testing.T) {
	a := NewEngine(EngineConfig{Controller: ControllerAI, Seed: 2024})
	b := NewEngine(EngineConfig{Controller: ControllerAI, Seed: 2024})

	for i := 0; i < 3000; i++ {
		a.Update(16 * time.Millisecond)
		b.Update(16 * time.Millisecond)
	}
	assert.Equal(t, a.GetState(), b.GetState())
}
