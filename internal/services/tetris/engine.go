package tetris

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
)

// Controller はエンジンを操作する主体です。
type Controller int

const (
	ControllerHuman Controller = iota // キー入力で操作される
	ControllerAI                      // AI プランナーが操作する
)

func (c Controller) String() string {
	if c == ControllerAI {
		return "ai"
	}
	return "human"
}

// ゲームループの時間に関する定数です。すべて仮想時間（Update に渡された経過時間の累積）で計ります。
const (
	LockDelay       = 500 * time.Millisecond // 接地してから強制的に固定されるまでの猶予
	MaxLockResets   = 15                     // 1ピースあたりに猶予をリセットできる回数
	SoftDropFactor  = 20                     // ソフトドロップ中は落下間隔をこの値で割る
	DefaultDAS      = 160 * time.Millisecond // 横移動の自動リピートが始まるまでの時間
	DefaultARR      = 30 * time.Millisecond  // 自動リピートの間隔
	AIThinkInterval = 500 * time.Millisecond // AI が次の手を考える間隔
)

// EngineConfig はエンジンの生成パラメータです。
type EngineConfig struct {
	Controller Controller
	Seed       int64         // ピース生成の乱数シード。0 の場合は現在時刻を使う
	DAS        time.Duration // 0 の場合は DefaultDAS
	ARR        time.Duration // 0 の場合は DefaultARR
	Logger     *zap.Logger   // nil の場合はログを出さない
}

// Engine は1人分のテトリスのシミュレーションです。
// 盤面・ピース・タイマー・入力状態をすべて自分だけで所有し、他のエンジンと状態を共有しません。
// ゴルーチンセーフではありません。1つのゴルーチン（ホストのループ）からだけ操作してください。
type Engine struct {
	controller Controller
	das        time.Duration
	arr        time.Duration
	logger     *zap.Logger
	rng        *rand.Rand

	board               tetris.Board
	current             tetris.Piece
	randomizer          *Randomizer
	held                *tetris.Piece
	canHold             bool
	score               int
	level               int
	lines               int
	gameOver            bool
	combo               int // -1 はコンボなし
	b2b                 int
	linesSent           int
	pieces              int // 固定したピースの数
	lastClear           ClearInfo
	lastMoveWasRotation bool

	gravityTimer time.Duration
	lockTimer    time.Duration
	lockResets   int

	keysDown map[string]bool
	softDrop bool
	dasDir   int // 現在押されている横方向 (-1, 0, 1)
	dasTimer time.Duration
	arrTimer time.Duration

	aiQueue      []Action
	aiThinkTimer time.Duration
}

// NewEngine は新しいエンジンを作成し、ゲームを開始できる状態に初期化します。
func NewEngine(cfg EngineConfig) *Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		controller: cfg.Controller,
		das:        cfg.DAS,
		arr:        cfg.ARR,
		logger:     logger.Named("engine"),
		rng:        rand.New(rand.NewSource(seed)),
	}
	if e.das <= 0 {
		e.das = DefaultDAS
	}
	if e.arr <= 0 {
		e.arr = DefaultARR
	}
	e.Reset()
	return e
}

// Controller はこのエンジンの操作主体を返します。
func (e *Engine) Controller() Controller {
	return e.controller
}

// IsGameOver はゲームオーバーになったかどうかを返します。
func (e *Engine) IsGameOver() bool {
	return e.gameOver
}

// Reset はシミュレーション全体を新しいゲームの状態に戻します。
// 空のボード、新しいバッグ、スコア0、レベル1から始まります。
func (e *Engine) Reset() {
	e.board = tetris.NewBoard()
	e.randomizer = NewRandomizer(e.rng)
	e.held = nil
	e.score = 0
	e.level = 1
	e.lines = 0
	e.gameOver = false
	e.combo = -1
	e.b2b = 0
	e.linesSent = 0
	e.pieces = 0
	e.lastClear = ClearInfo{}

	e.gravityTimer = 0
	e.lockTimer = 0
	e.lockResets = 0

	e.keysDown = make(map[string]bool)
	e.softDrop = false
	e.dasDir = 0
	e.dasTimer = 0
	e.arrTimer = 0

	e.aiQueue = nil
	e.aiThinkTimer = 0

	e.spawnNext()
	e.logger.Debug("engine reset", zap.Stringer("controller", e.controller))
}

// Update は deltaTime だけシミュレーションを進めます。ゲームオーバー後は何もしません。
// 人間の場合は押しっぱなしのキーを移動に変換してから、AI の場合はキューの手を1つ実行してから、
// 重力と固定猶予を処理します。
func (e *Engine) Update(deltaTime time.Duration) {
	if e.gameOver {
		return
	}

	if e.controller == ControllerHuman {
		e.handleInputs(deltaTime)
	} else {
		e.updateAI(deltaTime)
	}
	if e.gameOver {
		return // ハードドロップ直後のスポーンで詰んだ場合
	}

	e.updateGravity(deltaTime)
}

// updateGravity は自動落下と固定猶予（ロックディレイ）を処理します。
func (e *Engine) updateGravity(deltaTime time.Duration) {
	interval := GetFallInterval(e.level)
	if e.softDrop {
		interval /= SoftDropFactor
	}

	e.gravityTimer += deltaTime
	if e.gravityTimer >= interval {
		e.gravityTimer = 0
		e.move(0, 1)
	}

	if e.isGrounded() {
		e.lockTimer += deltaTime
		if e.lockTimer >= LockDelay {
			e.lockPiece()
		}
	} else {
		e.lockTimer = 0
	}
}

// spawnNext は先読みキューから次のピースを取り出して出現させます。
func (e *Engine) spawnNext() {
	e.spawn(tetris.NewPiece(e.randomizer.Next()))
}

// spawn は p を操作中のピースにし、ピースごとの状態をリセットします。
// 出現位置で既に衝突している場合はゲームオーバーです。
func (e *Engine) spawn(p tetris.Piece) {
	e.current = p
	e.canHold = true
	e.lockTimer = 0
	e.lockResets = 0
	e.lastMoveWasRotation = false

	if !e.board.IsValid(e.current) {
		e.gameOver = true
		e.aiQueue = nil
		e.logger.Debug("game over",
			zap.Stringer("controller", e.controller),
			zap.Int("score", e.score),
			zap.Int("lines", e.lines),
		)
	}
}

// isGrounded は操作中のピースがこれ以上下に動けないかを返します。
func (e *Engine) isGrounded() bool {
	return !e.board.IsValid(e.current.Moved(0, 1))
}

// move はピースを (dx, dy) だけ動かします。動かせなければ何もしません。
//
// Returns:
//   bool: 実際に動いた場合はtrue
func (e *Engine) move(dx, dy int) bool {
	candidate := e.current.Moved(dx, dy)
	if !e.board.IsValid(candidate) {
		return false
	}
	grounded := e.isGrounded()
	e.current = candidate
	e.lastMoveWasRotation = false
	if grounded {
		e.resetLockDelay()
	}
	return true
}

// rotate は SRS に従ってピースを回転させます。
// キックテーブルの候補を順番に試し、最初に置けた位置を採用します。どれも置けなければ何もしません。
func (e *Engine) rotate(clockwise bool) bool {
	if e.current.Type == tetris.TypeO {
		return false // Oミノは回転しない
	}

	from := e.current.Rotation
	to := (from + 3) % 4
	if clockwise {
		to = (from + 1) % 4
	}

	grounded := e.isGrounded()
	rotated := e.current.WithRotation(to)
	for _, kick := range tetris.Kicks(e.current.Type, from, to) {
		// SRS のキックは上向きが正なので、ボードの y には符号を反転して適用する
		candidate := rotated.Moved(kick.X, -kick.Y)
		if e.board.IsValid(candidate) {
			e.current = candidate
			e.lastMoveWasRotation = true
			if grounded {
				e.resetLockDelay()
			}
			return true
		}
	}
	return false
}

// resetLockDelay は接地中の操作で固定猶予をやり直します。1ピースにつき MaxLockResets 回までです。
func (e *Engine) resetLockDelay() {
	if e.lockResets < MaxLockResets {
		e.lockTimer = 0
		e.lockResets++
	}
}

// hold は操作中のピースをホールドします。1ピースにつき1回だけ使えます。
// ホールドが空なら次のピースを出現させ、そうでなければホールド中のピースと入れ替えます。
func (e *Engine) hold() bool {
	if !e.canHold {
		return false
	}

	previous := e.held
	stored := tetris.NewPiece(e.current.Type) // ホールドしたピースは出現時の向き・位置に戻す
	e.held = &stored

	if previous != nil {
		e.spawn(tetris.NewPiece(previous.Type))
	} else {
		e.spawnNext()
	}
	e.canHold = false
	return true
}

// ghostPiece は操作中のピースを真下に落としたときの最終位置を返します。
func (e *Engine) ghostPiece() tetris.Piece {
	ghost := e.current
	for e.board.IsValid(ghost.Moved(0, 1)) {
		ghost = ghost.Moved(0, 1)
	}
	return ghost
}

// hardDrop はピースをゴーストの位置まで落とし、すぐに固定します。
func (e *Engine) hardDrop() bool {
	e.current = e.ghostPiece()
	e.lockPiece()
	return true
}
