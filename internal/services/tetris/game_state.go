package tetris

import (
	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
)

// GameState はエンジンの読み取り専用スナップショットです。
// レンダラーや WebSocket クライアントへ送る状態はすべてここから取り出します。
type GameState struct {
	Board        tetris.Board       `json:"board"`         // 固定済みブロックのボード（コピー）
	CurrentPiece tetris.Piece       `json:"current_piece"` // 操作中のテトリミノ
	GhostPiece   tetris.Piece       `json:"ghost_piece"`   // 操作中のテトリミノを真下に落とした位置
	NextPieces   []tetris.PieceType `json:"next_pieces"`   // 先読みキュー（PreviewSize 個）
	HeldPiece    *tetris.Piece      `json:"held_piece"`    // ホールド中のテトリミノ。なければ nil
	CanHold      bool               `json:"can_hold"`      // 今のピースでホールドが使えるか
	Score        int                `json:"score"`
	Level        int                `json:"level"`
	Lines        int                `json:"lines"`
	GameOver     bool               `json:"game_over"`
	Combo        int                `json:"combo"` // 表示用のコンボ数。0 はコンボなし
	B2B          int                `json:"b2b"`   // Back-to-Back の連続数
	LinesSent    int                `json:"lines_sent"`
	Pieces       int                `json:"pieces"` // 固定したピースの数
	LastClear    ClearInfo          `json:"last_clear"`
}

// GetState は現在の状態のスナップショットを返します。何度呼んでも状態は変わりません。
// ゴーストピースは保存せず、呼ばれるたびに計算し直します。
func (e *Engine) GetState() GameState {
	state := GameState{
		Board:        e.board,
		CurrentPiece: e.current,
		GhostPiece:   e.ghostPiece(),
		NextPieces:   e.randomizer.Preview(),
		CanHold:      e.canHold,
		Score:        e.score,
		Level:        e.level,
		Lines:        e.lines,
		GameOver:     e.gameOver,
		Combo:        e.displayCombo(),
		B2B:          e.b2b,
		LinesSent:    e.linesSent,
		Pieces:       e.pieces,
		LastClear:    e.lastClear,
	}
	if e.held != nil {
		held := *e.held
		state.HeldPiece = &held
	}
	return state
}
