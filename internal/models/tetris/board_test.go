package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fillRow(b *Board, y int, except ...int) {
	skip := make(map[int]bool, len(except))
	for _, x := range except {
		skip[x] = true
	}
	for x := 0; x < BoardWidth; x++ {
		if !skip[x] {
			b[y][x] = BlockGarbage
		}
	}
}

func TestNewBoard(t *testing.T) {
	b := NewBoard()
	assert.Equal(t, BoardHeight, len(b))
	assert.Equal(t, BoardWidth, len(b[0]))
	assert.Equal(t, 22, BoardHeight)
	assert.True(t, b.IsEmpty())
}

func TestIsValid(t *testing.T) {
	b := NewBoard()

	tests := []struct {
		name  string
		piece Piece
		want  bool
	}{
		{"spawn position", NewPiece(TypeT), true},
		{"left wall", NewPiece(TypeO).Moved(-5, 0), false},
		{"touching left wall", NewPiece(TypeO).Moved(-4, 0), true},
		{"right wall", NewPiece(TypeO).Moved(5, 0), false},
		{"floor", NewPiece(TypeO).Moved(0, BoardHeight-1), false},
		{"resting on floor", NewPiece(TypeO).Moved(0, BoardHeight-2), true},
		{"above the board", NewPiece(TypeO).Moved(0, -5), true},
		// I の R 状態は3列目だけが埋まっているので、x=-2 でもはみ出すのは空の列だけ
		{"empty shape column outside", Piece{Type: TypeI}.WithRotation(RotationRight).Moved(-2, 5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.IsValid(tt.piece))
		})
	}

	// 既存ブロックとの衝突
	b[BoardHeight-1][4] = BlockGarbage
	assert.False(t, b.IsValid(NewPiece(TypeO).Moved(0, BoardHeight-2)))
	// 見えない領域の上のマスはボードの中身と比較しない
	b[0][4] = BlockGarbage
	assert.True(t, b.IsValid(NewPiece(TypeO).Moved(0, -2)))
	assert.False(t, b.IsValid(NewPiece(TypeO).Moved(0, -1)))
}

func TestMergePiece(t *testing.T) {
	b := NewBoard()
	p := NewPiece(TypeO).Moved(0, BoardHeight-2)
	b.MergePiece(p)

	assert.Equal(t, BlockO, b[BoardHeight-1][4])
	assert.Equal(t, BlockO, b[BoardHeight-1][5])
	assert.Equal(t, BlockO, b[BoardHeight-2][4])
	assert.Equal(t, BlockO, b[BoardHeight-2][5])
	assert.Equal(t, BlockEmpty, b[BoardHeight-1][3])

	// 範囲外のブロックは無視される
	b2 := NewBoard()
	b2.MergePiece(NewPiece(TypeO).Moved(0, -3))
	assert.True(t, b2.IsEmpty())
}

func TestClearLines(t *testing.T) {
	b := NewBoard()
	fillRow(&b, BoardHeight-1)
	fillRow(&b, BoardHeight-2, 3)
	fillRow(&b, BoardHeight-3)
	b[BoardHeight-4][7] = BlockT

	cleared := b.ClearLines()

	assert.Equal(t, 2, cleared)
	// 揃っていなかった行が最下段へ、その上の行が続く
	assert.Equal(t, BlockEmpty, b[BoardHeight-1][3])
	assert.Equal(t, BlockGarbage, b[BoardHeight-1][0])
	assert.Equal(t, BlockT, b[BoardHeight-2][7])
	for y := 0; y < BoardHeight-2; y++ {
		for x := 0; x < BoardWidth; x++ {
			assert.Equal(t, BlockEmpty, b[y][x])
		}
	}
}

func TestClearLines_AdjacentFullRows(t *testing.T) {
	b := NewBoard()
	for y := BoardHeight - 4; y < BoardHeight; y++ {
		fillRow(&b, y)
	}
	assert.Equal(t, 4, b.FullRows())
	assert.Equal(t, 4, b.ClearLines())
	assert.True(t, b.IsEmpty())
}

func TestIsOccupied(t *testing.T) {
	b := NewBoard()
	b[10][5] = BlockS

	assert.True(t, b.IsOccupied(5, 10))
	assert.False(t, b.IsOccupied(4, 10))
	assert.True(t, b.IsOccupied(-1, 10))
	assert.True(t, b.IsOccupied(BoardWidth, 10))
	assert.True(t, b.IsOccupied(3, -1))
	assert.True(t, b.IsOccupied(3, BoardHeight))
}
