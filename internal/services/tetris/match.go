package tetris

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models"
)

// MatchMode はゲームの種類です。
type MatchMode string

const (
	MatchModeMarathon MatchMode = "marathon" // 1人でプレイする
	MatchModeVsAI     MatchMode = "vs_ai"    // AI のエンジンと並べてプレイする
)

// ErrInvalidMode は未対応のゲームモードが指定されたことを表します。
var ErrInvalidMode = errors.New("invalid match mode")

// ParseMatchMode は文字列をゲームモードに変換します。空文字列は marathon として扱います。
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case "", MatchModeMarathon:
		return MatchModeMarathon, nil
	case MatchModeVsAI:
		return MatchModeVsAI, nil
	}
	return "", ErrInvalidMode
}

// MatchStatus はマッチの進行状況です。
type MatchStatus string

const (
	MatchWaiting  MatchStatus = "waiting" // クライアントの接続待ち
	MatchPlaying  MatchStatus = "playing"
	MatchPaused   MatchStatus = "paused"
	MatchFinished MatchStatus = "finished"
)

// 勝者の表記です。marathon では勝者はいません。
const (
	WinnerPlayer = "player"
	WinnerAI     = "ai"
)

// MatchConfig はマッチの生成パラメータです。
type MatchConfig struct {
	ID     string
	UserID string
	Mode   MatchMode
	Seed   int64 // 0 の場合は現在時刻。vs_ai の AI 側は Seed+1 を使う
	Logger *zap.Logger
}

// Match は1回分のゲームセッションです。
// プレイヤーのエンジンと、vs_ai の場合は独立した AI のエンジンを持ちます。
// 2つのエンジンは同じループから同じ経過時間で進められるだけで、状態は一切共有しません。
type Match struct {
	ID        string
	UserID    string
	Mode      MatchMode
	Status    MatchStatus
	Player    *Engine
	Opponent  *Engine // marathon では nil
	Winner    string
	CreatedAt time.Time
	StartedAt time.Time
	EndedAt   time.Time
}

// MatchSnapshot はクライアントに送るマッチの状態です。
type MatchSnapshot struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Mode      MatchMode   `json:"mode"`
	Status    MatchStatus `json:"status"`
	Player    GameState   `json:"player"`
	Opponent  *GameState  `json:"opponent,omitempty"`
	Winner    string      `json:"winner,omitempty"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
}

// NewMatch は接続待ち状態のマッチを作成します。
func NewMatch(cfg MatchConfig) *Match {
	m := &Match{
		ID:        cfg.ID,
		UserID:    cfg.UserID,
		Mode:      cfg.Mode,
		Status:    MatchWaiting,
		CreatedAt: time.Now(),
		Player:    NewEngine(EngineConfig{Controller: ControllerHuman, Seed: cfg.Seed, Logger: cfg.Logger}),
	}
	if cfg.Mode == MatchModeVsAI {
		aiSeed := cfg.Seed
		if aiSeed != 0 {
			aiSeed++
		}
		m.Opponent = NewEngine(EngineConfig{Controller: ControllerAI, Seed: aiSeed, Logger: cfg.Logger})
	}
	return m
}

// Start は接続待ちのマッチを開始します。
func (m *Match) Start() {
	if m.Status != MatchWaiting {
		return
	}
	m.Status = MatchPlaying
	m.StartedAt = time.Now()
}

// Step はプレイ中のマッチを dt だけ進めます。
//
// Returns:
//   - bool: エンジンを進めた場合は true（一時停止中・終了後は false）
func (m *Match) Step(dt time.Duration) bool {
	if m.Status != MatchPlaying {
		return false
	}
	m.Player.Update(dt)
	if m.Opponent != nil {
		m.Opponent.Update(dt)
	}
	m.checkFinished()
	return true
}

// HandleKey はクライアントのキーイベントをプレイヤーのエンジンに渡します。
// プレイ中以外は無視します。
func (m *Match) HandleKey(down bool, code string) {
	if m.Status != MatchPlaying {
		return
	}
	if down {
		m.Player.HandleKeyDown(code)
	} else {
		m.Player.HandleKeyUp(code)
	}
	// ハードドロップでそのままゲームオーバーになることがある
	m.checkFinished()
}

// TogglePause は一時停止と再開を切り替えます。
// エンジン自体は一時停止を知らず、止まっている間は Step が呼ばれないだけです。
func (m *Match) TogglePause() {
	switch m.Status {
	case MatchPlaying:
		m.Status = MatchPaused
	case MatchPaused:
		m.Status = MatchPlaying
	}
}

// Restart は両方のエンジンをリセットして、新しいゲームとしてやり直します。
func (m *Match) Restart() {
	if m.Status == MatchWaiting {
		return
	}
	m.Player.Reset()
	if m.Opponent != nil {
		m.Opponent.Reset()
	}
	m.Status = MatchPlaying
	m.Winner = ""
	m.StartedAt = time.Now()
	m.EndedAt = time.Time{}
}

// Abandon はプレイヤーが途中で抜けたマッチを終了させます。vs_ai では AI の勝ちです。
func (m *Match) Abandon() {
	if m.Status == MatchFinished || m.Status == MatchWaiting {
		return
	}
	if m.Opponent != nil {
		m.Winner = WinnerAI
	}
	m.finish()
}

func (m *Match) checkFinished() {
	switch {
	case m.Player.IsGameOver():
		if m.Opponent != nil {
			m.Winner = WinnerAI
		}
		m.finish()
	case m.Opponent != nil && m.Opponent.IsGameOver():
		m.Winner = WinnerPlayer
		m.finish()
	}
}

func (m *Match) finish() {
	m.Status = MatchFinished
	m.EndedAt = time.Now()
}

// Snapshot はマッチの現在の状態を返します。
func (m *Match) Snapshot() MatchSnapshot {
	s := MatchSnapshot{
		ID:     m.ID,
		UserID: m.UserID,
		Mode:   m.Mode,
		Status: m.Status,
		Player: m.Player.GetState(),
		Winner: m.Winner,
	}
	if m.Opponent != nil {
		opp := m.Opponent.GetState()
		s.Opponent = &opp
	}
	if !m.StartedAt.IsZero() {
		started := m.StartedAt
		s.StartedAt = &started
	}
	if !m.EndedAt.IsZero() {
		ended := m.EndedAt
		s.EndedAt = &ended
	}
	return s
}

// Result はプレイヤーの記録を保存用のレコードにします。
func (m *Match) Result() *models.Result {
	state := m.Player.GetState()
	return &models.Result{
		UserID:    m.UserID,
		Mode:      string(m.Mode),
		Score:     state.Score,
		Lines:     state.Lines,
		Level:     state.Level,
		CreatedAt: m.EndedAt.UTC(),
	}
}
