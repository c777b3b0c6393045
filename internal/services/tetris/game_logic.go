package tetris

import (
	"fmt"
	"math"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
)

// LevelUpLines はレベルアップに必要なライン数です（10ラインごとにレベルアップ）。
const LevelUpLines = 10

// gravityLevels はレベルごとの自動落下間隔（1段あたり）です。16以上のレベルは最後の値を使います。
var gravityLevels = [...]time.Duration{
	1000 * time.Millisecond,
	800 * time.Millisecond,
	600 * time.Millisecond,
	400 * time.Millisecond,
	200 * time.Millisecond,
	100 * time.Millisecond,
	80 * time.Millisecond,
	60 * time.Millisecond,
	40 * time.Millisecond,
	20 * time.Millisecond,
	10 * time.Millisecond,
	8 * time.Millisecond,
	6 * time.Millisecond,
	4 * time.Millisecond,
	2 * time.Millisecond,
	1 * time.Millisecond,
}

// GetFallInterval は現在のレベルに基づいた自動落下間隔を返します。
func GetFallInterval(level int) time.Duration {
	i := level - 1
	if i < 0 {
		i = 0
	}
	if i >= len(gravityLevels) {
		i = len(gravityLevels) - 1
	}
	return gravityLevels[i]
}

// スコアの基本点です。実際の加算はこれにレベルを掛けた値になります。
const (
	ScoreSingle      = 100
	ScoreDouble      = 300
	ScoreTriple      = 500
	ScoreTetris      = 800
	ScoreTSpinMini   = 100
	ScoreTSpinSingle = 800
	ScoreTSpinDouble = 1200
	ScoreTSpinTriple = 1600
	ComboBonus       = 50
	B2BMultiplier    = 1.5
)

// TSpinStatus は固定したピースの T-Spin 判定結果です。
type TSpinStatus int

const (
	TSpinNone TSpinStatus = iota
	TSpinMini
	TSpinFull
)

func (s TSpinStatus) String() string {
	switch s {
	case TSpinMini:
		return "mini"
	case TSpinFull:
		return "full"
	default:
		return "none"
	}
}

// MarshalJSON は判定結果を "none", "mini", "full" としてシリアライズします。
func (s TSpinStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON は "none", "mini", "full" から判定結果を復元します。
func (s *TSpinStatus) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"none"`:
		*s = TSpinNone
	case `"mini"`:
		*s = TSpinMini
	case `"full"`:
		*s = TSpinFull
	default:
		return fmt.Errorf("unknown t-spin status %s", data)
	}
	return nil
}

// ClearInfo は直前に固定したピースの結果です。
type ClearInfo struct {
	Lines        int         `json:"lines"`
	TSpin        TSpinStatus `json:"tSpin"`
	BackToBack   bool        `json:"backToBack"`
	PerfectClear bool        `json:"perfectClear"`
}

// BaseScore はライン数と T-Spin 判定から基本点を求めます。
//
// Parameters:
//   lines : 消えたライン数 (0-4)
//   tSpin : T-Spin 判定結果
// Returns:
//   int : 基本点（レベル倍率・B2B・コンボ適用前）
//   bool: テトリスまたは T-Spin（Back-to-Back の対象）ならtrue
func BaseScore(lines int, tSpin TSpinStatus) (int, bool) {
	if tSpin != TSpinNone {
		switch lines {
		case 1:
			if tSpin == TSpinMini {
				return ScoreTSpinMini, true
			}
			return ScoreTSpinSingle, true
		case 2:
			return ScoreTSpinDouble, true
		case 3:
			return ScoreTSpinTriple, true
		default:
			// ラインが消えなくても T-Spin は Mini の点数を得る
			return ScoreTSpinMini, true
		}
	}

	switch lines {
	case 1:
		return ScoreSingle, false
	case 2:
		return ScoreDouble, false
	case 3:
		return ScoreTriple, false
	case 4:
		return ScoreTetris, true
	}
	return 0, false
}

// 相手に送るライン数（攻撃力）の表です。シングルプレイでは統計としてだけ使います。
var (
	attackByLines      = [...]int{0, 0, 1, 2, 4}
	attackByTSpinLines = [...]int{0, 2, 4, 6}
)

const (
	attackTSpinMini    = 0
	attackB2BBonus     = 1
	attackPerfectClear = 10
)

// CalculateAttack はラインを消した1回の固定で送るライン数を計算します。
//
// Parameters:
//   lines        : 消えたライン数 (1-4)
//   tSpin        : T-Spin 判定結果
//   backToBack   : Back-to-Back が適用されたか
//   combo        : 表示上のコンボ数
//   perfectClear : ボードが空になったか
func CalculateAttack(lines int, tSpin TSpinStatus, backToBack bool, combo int, perfectClear bool) int {
	if lines <= 0 {
		return 0
	}
	if perfectClear {
		return attackPerfectClear
	}

	attack := 0
	switch {
	case tSpin == TSpinMini && lines == 1:
		attack = attackTSpinMini
	case tSpin != TSpinNone && lines < len(attackByTSpinLines):
		attack = attackByTSpinLines[lines]
	case lines < len(attackByLines):
		attack = attackByLines[lines]
	}
	if backToBack {
		attack += attackB2BBonus
	}
	return attack + comboAttack(combo)
}

func comboAttack(combo int) int {
	switch {
	case combo <= 1:
		return 0
	case combo <= 3:
		return 1
	case combo <= 5:
		return 2
	case combo <= 7:
		return 3
	default:
		return 4
	}
}

// detectTSpin は固定しようとしている T ミノの T-Spin を判定します。
// 直前の操作が回転でなければ判定しません。3x3 の外接枠の四隅のうち3つ以上が埋まっていれば T-Spin で、
// ちょうど3つのときに向きの正面側の角が空いていれば Mini です。
func (e *Engine) detectTSpin() TSpinStatus {
	p := e.current
	if p.Type != tetris.TypeT || !e.lastMoveWasRotation {
		return TSpinNone
	}

	// 左上, 右上, 左下, 右下
	corners := [4]bool{
		e.board.IsOccupied(p.X, p.Y),
		e.board.IsOccupied(p.X+2, p.Y),
		e.board.IsOccupied(p.X, p.Y+2),
		e.board.IsOccupied(p.X+2, p.Y+2),
	}
	filled := 0
	for _, c := range corners {
		if c {
			filled++
		}
	}
	if filled < 3 {
		return TSpinNone
	}

	var front [2]bool
	switch p.Rotation {
	case tetris.RotationSpawn:
		front = [2]bool{corners[0], corners[1]}
	case tetris.RotationRight:
		front = [2]bool{corners[1], corners[3]}
	case tetris.RotationFlip:
		front = [2]bool{corners[3], corners[2]}
	default:
		front = [2]bool{corners[2], corners[0]}
	}
	if filled == 3 && (!front[0] || !front[1]) {
		return TSpinMini
	}
	return TSpinFull
}

// lockPiece は操作中のピースをボードに固定し、ライン消去・得点・レベル・コンボを更新して次のピースを出現させます。
func (e *Engine) lockPiece() {
	tSpin := e.detectTSpin()

	e.board.MergePiece(e.current)
	e.pieces++
	cleared := e.board.ClearLines()

	if cleared > 0 {
		e.lines += cleared
		e.level = e.lines/LevelUpLines + 1
		e.combo++
	} else {
		e.combo = -1
	}
	e.updateScore(cleared, tSpin)

	e.spawnNext()
}

// updateScore は1回の固定で得た得点を加算します。
// Back-to-Back 倍率とコンボボーナスを基本点に適用してから、レベルを掛けて切り捨てます。
func (e *Engine) updateScore(cleared int, tSpin TSpinStatus) {
	e.lastClear = ClearInfo{Lines: cleared, TSpin: tSpin}
	if cleared == 0 && tSpin == TSpinNone {
		return
	}

	base, difficult := BaseScore(cleared, tSpin)
	score := float64(base)
	if difficult {
		if e.b2b > 0 {
			score *= B2BMultiplier
			e.lastClear.BackToBack = true
		}
		e.b2b++
	} else if cleared > 0 {
		e.b2b = 0
	}
	if e.combo > 0 {
		score += float64(ComboBonus * e.combo)
	}
	e.score += int(math.Floor(score * float64(e.level)))

	if cleared > 0 {
		e.lastClear.PerfectClear = e.board.IsEmpty()
		e.linesSent += CalculateAttack(cleared, tSpin, e.lastClear.BackToBack, e.displayCombo(), e.lastClear.PerfectClear)
	}
}

// displayCombo はスナップショットに載せるコンボ数です（コンボなしは0）。
func (e *Engine) displayCombo() int {
	if e.combo > 0 {
		return e.combo + 1
	}
	return 0
}
