package tetris

import (
	"math"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
)

// 盤面評価の重みです。
const (
	weightHeight    = -0.51
	weightHoles     = -0.35
	weightBumpiness = -0.18
	weightLines     = 0.76
)

// BoardFeatures は盤面評価に使う特徴量です。
type BoardFeatures struct {
	AggregateHeight int // 各列の高さの合計
	Holes           int // 上にブロックがある空きマスの数
	Bumpiness       int // 隣り合う列の高さの差の絶対値の合計
	Lines           int // 揃っている行の数
}

// Score は特徴量の重み付き和です。大きいほど良い盤面です。
func (f BoardFeatures) Score() float64 {
	return weightHeight*float64(f.AggregateHeight) +
		weightHoles*float64(f.Holes) +
		weightBumpiness*float64(f.Bumpiness) +
		weightLines*float64(f.Lines)
}

// EvaluateBoard は board の特徴量を計算します。
func EvaluateBoard(board *tetris.Board) BoardFeatures {
	var f BoardFeatures
	var tops [tetris.BoardWidth]int // 各列の一番上のブロックの y。空の列は BoardHeight
	for x := range tops {
		tops[x] = tetris.BoardHeight
	}

	for y := 0; y < tetris.BoardHeight; y++ {
		full := true
		for x := 0; x < tetris.BoardWidth; x++ {
			if board[y][x] != tetris.BlockEmpty {
				if y < tops[x] {
					tops[x] = y
				}
				continue
			}
			full = false
			if y > tops[x] {
				f.Holes++
			}
		}
		if full {
			f.Lines++
		}
	}

	for x, top := range tops {
		f.AggregateHeight += tetris.BoardHeight - top
		if x > 0 {
			diff := tops[x-1] - top
			if diff < 0 {
				diff = -diff
			}
			f.Bumpiness += diff
		}
	}
	return f
}

// findBestMove は操作中のピースを置ける全ての場所（回転 × 列）を調べ、評価が最も高い着地位置を返します。
// 評価が同じ場合は先に見つけた候補を採用します。置ける場所がなければ false を返します。
func (e *Engine) findBestMove() (tetris.Piece, bool) {
	var best tetris.Piece
	bestScore := math.Inf(-1)
	found := false

	for r := 0; r < tetris.RotationCount(e.current.Type); r++ {
		rotated := e.current.WithRotation(tetris.Rotation(r))
		for x := -2; x < tetris.BoardWidth; x++ {
			candidate := rotated
			candidate.X = x
			candidate.Y = 0
			if !e.board.IsValid(candidate) {
				continue
			}
			for e.board.IsValid(candidate.Moved(0, 1)) {
				candidate = candidate.Moved(0, 1)
			}

			scratch := e.board
			scratch.MergePiece(candidate)
			score := EvaluateBoard(&scratch).Score()
			if score > bestScore {
				bestScore = score
				best = candidate
				found = true
			}
		}
	}
	return best, found
}

// moveSequence は操作中のピースを target まで運ぶ操作列を作ります。
// 回転は常に時計回りだけを使い、その後に横移動を1マスずつ、最後にハードドロップです。
func (e *Engine) moveSequence(target tetris.Piece) []Action {
	var moves []Action

	rotations := (int(target.Rotation) - int(e.current.Rotation) + 4) % 4
	for i := 0; i < rotations; i++ {
		moves = append(moves, ActionRotateCW)
	}

	for dx := target.X - e.current.X; dx != 0; {
		if dx > 0 {
			moves = append(moves, ActionMoveRight)
			dx--
		} else {
			moves = append(moves, ActionMoveLeft)
			dx++
		}
	}

	return append(moves, ActionHardDrop)
}

// updateAI は一定間隔ごと（キューが空のとき）に次の手を考え、キューの操作を1フレームに1つ実行します。
func (e *Engine) updateAI(deltaTime time.Duration) {
	e.aiThinkTimer += deltaTime

	if e.aiThinkTimer > AIThinkInterval && len(e.aiQueue) == 0 {
		e.aiThinkTimer = 0
		if target, ok := e.findBestMove(); ok {
			e.aiQueue = e.moveSequence(target)
		}
	}

	if len(e.aiQueue) > 0 {
		next := e.aiQueue[0]
		e.aiQueue = e.aiQueue[1:]
		e.applyAction(next)
	}
}
