package tetris

import "time"

// Action はエンジンが理解する論理的な操作です。
type Action int

const (
	ActionNone Action = iota
	ActionMoveLeft
	ActionMoveRight
	ActionSoftDrop
	ActionRotateCW
	ActionRotateCCW
	ActionHardDrop
	ActionHold
)

func (a Action) String() string {
	switch a {
	case ActionMoveLeft:
		return "move_left"
	case ActionMoveRight:
		return "move_right"
	case ActionSoftDrop:
		return "soft_drop"
	case ActionRotateCW:
		return "rotate_right"
	case ActionRotateCCW:
		return "rotate_left"
	case ActionHardDrop:
		return "hard_drop"
	case ActionHold:
		return "hold"
	default:
		return "none"
	}
}

// KeyBindings はブラウザの KeyboardEvent.code から操作への対応表です。
var KeyBindings = map[string]Action{
	"ArrowLeft":  ActionMoveLeft,
	"ArrowRight": ActionMoveRight,
	"ArrowDown":  ActionSoftDrop,
	"ArrowUp":    ActionRotateCW,
	"KeyX":       ActionRotateCW,
	"KeyZ":       ActionRotateCCW,
	"Space":      ActionHardDrop,
	"KeyC":       ActionHold,
	"ShiftLeft":  ActionHold,
}

// HandleKeyDown はキーが押された瞬間のイベントを処理します。
// 回転・ハードドロップ・ホールドはその場で実行し、横移動とソフトドロップは押下状態として記録して
// Update の中で処理します。AI 操作のエンジン、ゲームオーバー後、未知のキーは無視します。
// すでに押されているキーの再送（キーリピート）も無視します。
func (e *Engine) HandleKeyDown(code string) {
	if e.controller != ControllerHuman || e.gameOver {
		return
	}
	action, ok := KeyBindings[code]
	if !ok || e.keysDown[code] {
		return
	}
	e.keysDown[code] = true

	switch action {
	case ActionSoftDrop:
		e.softDrop = true
	case ActionRotateCW, ActionRotateCCW, ActionHardDrop, ActionHold:
		e.applyAction(action)
	}
}

// HandleKeyUp はキーが離された瞬間のイベントを処理します。
// 横移動キーを離すと DAS と ARR のタイマーをリセットします。
func (e *Engine) HandleKeyUp(code string) {
	if e.controller != ControllerHuman || e.gameOver {
		return
	}
	action, ok := KeyBindings[code]
	if !ok {
		return
	}
	delete(e.keysDown, code)

	switch action {
	case ActionMoveLeft, ActionMoveRight:
		e.dasTimer = 0
		e.arrTimer = 0
	case ActionSoftDrop:
		e.softDrop = e.isHeld(ActionSoftDrop)
	}
}

// isHeld は action に割り当てられたキーのどれかが押されているかを返します。
func (e *Engine) isHeld(action Action) bool {
	for code := range e.keysDown {
		if KeyBindings[code] == action {
			return true
		}
	}
	return false
}

// handleInputs は押しっぱなしの横移動キーを DAS/ARR に従って移動に変換します。
// 片方の方向だけが押された最初のフレームで1マス動かし、押下時間が DAS を超えたら
// ARR ごとに1マスずつ動かします。両方押されている、またはどちらも押されていない場合はタイマーをリセットします。
func (e *Engine) handleInputs(deltaTime time.Duration) {
	left := e.isHeld(ActionMoveLeft)
	right := e.isHeld(ActionMoveRight)

	dir := 0
	switch {
	case left && !right:
		dir = -1
	case right && !left:
		dir = 1
	}

	if dir != e.dasDir || dir == 0 {
		e.dasDir = dir
		e.dasTimer = 0
		e.arrTimer = 0
		if dir == 0 {
			return
		}
	}

	if e.dasTimer == 0 {
		e.move(dir, 0)
	}
	e.dasTimer += deltaTime
	if e.dasTimer > e.das {
		e.arrTimer += deltaTime
		if e.arrTimer > e.arr {
			e.move(dir, 0)
			e.arrTimer = 0
		}
	}
}

// applyAction は1つの操作をすぐに実行します。AI の手順キューもこれを使います。
//
// Returns:
//   bool: 状態が変わった場合はtrue
func (e *Engine) applyAction(action Action) bool {
	switch action {
	case ActionMoveLeft:
		return e.move(-1, 0)
	case ActionMoveRight:
		return e.move(1, 0)
	case ActionSoftDrop:
		return e.move(0, 1)
	case ActionRotateCW:
		return e.rotate(true)
	case ActionRotateCCW:
		return e.rotate(false)
	case ActionHardDrop:
		return e.hardDrop()
	case ActionHold:
		return e.hold()
	}
	return false
}
