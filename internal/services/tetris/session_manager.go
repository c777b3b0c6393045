package tetris

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models"
)

var (
	// ErrGameNotFound は指定されたマッチが存在しないことを表します。
	ErrGameNotFound = errors.New("game not found")
	// ErrNotMatchOwner は他のユーザーのマッチに接続しようとしたことを表します。
	ErrNotMatchOwner = errors.New("game belongs to another user")
	// ErrShuttingDown はシャットダウン中で新しい接続を受け付けないことを表します。
	ErrShuttingDown = errors.New("session manager is shutting down")
)

const (
	DefaultTickRate = 60
	// PendingTimeout を過ぎてもクライアントが接続しないマッチは破棄します。
	PendingTimeout = 5 * time.Minute
	saveTimeout    = 5 * time.Second
)

// ResultStore はゲーム結果の保存先です。
type ResultStore interface {
	CreateResult(ctx context.Context, result *models.Result) (*models.Result, error)
}

// CoinAwarder はスコアに応じたコインの付与先です。
type CoinAwarder interface {
	AwardCoins(ctx context.Context, userID string, score int) (int, error)
}

// Client はWebSocket接続を持つ単一のクライアントを表します。
type Client struct {
	UserID  string          // このクライアントに紐づくユーザーのID
	MatchID string          // このクライアントが操作しているマッチのID
	Conn    *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send    chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed  bool            // チャネルが閉じられたかどうかのフラグ
	mu      sync.Mutex      // closedフラグ保護用
	logger  *zap.Logger
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.Send <- message:
		return true
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// ClientMessage はクライアントから届くメッセージです。
//
//	{"type":"keydown","code":"ArrowLeft"} / {"type":"keyup","code":"ArrowLeft"}
//	{"type":"pause"} / {"type":"restart"}
type ClientMessage struct {
	Type  string `json:"type"`
	Code  string `json:"code,omitempty"`
	Token string `json:"token,omitempty"` // 認証メッセージでのみ使う
}

// ServerMessage はクライアントへ送るメッセージです。
type ServerMessage struct {
	Type  string         `json:"type"` // "state"
	Match *MatchSnapshot `json:"match,omitempty"`
}

// clientEvent はどのマッチ宛てかを付けた ClientMessage です。
type clientEvent struct {
	MatchID string
	ClientMessage
}

// SessionManagerConfig は SessionManager の生成パラメータです。
type SessionManagerConfig struct {
	TickRate int         // 1秒あたりのフレーム数。0 の場合は DefaultTickRate
	Results  ResultStore // nil の場合は結果を保存しない
	Coins    CoinAwarder // nil の場合はコインを付与しない
	Logger   *zap.Logger
}

// SessionManager はマッチとWebSocketクライアント接続の全体を管理します。
// エンジンは Run のゴルーチンからだけ操作され、HTTP ハンドラーはキャッシュされたスナップショットを読むだけです。
type SessionManager struct {
	matches     map[string]*Match         // matchID -> Match
	snapshots   map[string]MatchSnapshot  // matchID -> 最後に進めたときの状態
	clients     map[string]*Client        // matchID -> Client (1マッチにつき1接続)
	register    chan *Client              // 新しいクライアント接続の登録リクエスト用チャネル
	unregister  chan *Client              // クライアント切断の登録解除リクエスト用チャネル
	inputEvents chan clientEvent          // クライアントからのメッセージを受け取るチャネル
	quit        chan struct{}             // シャットダウン用チャネル
	mu          sync.RWMutex              // matches, snapshots, clients を保護する
	saves       sync.WaitGroup            // 実行中の結果保存
	quitOnce    sync.Once

	step    time.Duration
	results ResultStore
	coins   CoinAwarder
	logger  *zap.Logger
}

// NewSessionManager は新しい SessionManager を作成します。メインループは Run で開始してください。
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SessionManager{
		matches:     make(map[string]*Match),
		snapshots:   make(map[string]MatchSnapshot),
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		inputEvents: make(chan clientEvent, 512),
		quit:        make(chan struct{}),
		step:        time.Second / time.Duration(tickRate),
		results:     cfg.Results,
		coins:       cfg.Coins,
		logger:      logger.Named("session"),
	}
}

// Step は1フレームで進める仮想時間です。
func (sm *SessionManager) Step() time.Duration {
	return sm.step
}

// Run は SessionManager のメインイベントループです。
// クライアントの登録/解除、クライアントからのメッセージ、固定ステップでのエンジン更新をすべてこのゴルーチンで処理します。
func (sm *SessionManager) Run() {
	ticker := time.NewTicker(sm.step)
	defer ticker.Stop()
	cleanup := time.NewTicker(PendingTimeout / 10)
	defer cleanup.Stop()

	sm.logger.Info("session loop started", zap.Duration("step", sm.step))
	for {
		select {
		case client := <-sm.register:
			sm.handleRegister(client)

		case client := <-sm.unregister:
			sm.handleUnregister(client)

		case event := <-sm.inputEvents:
			sm.handleEvent(event)

		case <-ticker.C:
			sm.tick()

		case now := <-cleanup.C:
			sm.cleanupPending(now)

		case <-sm.quit:
			sm.logger.Info("session loop stopped")
			return
		}
	}
}

// CreateMatch は新しいマッチを作成します。クライアントが接続するとゲームが始まります。
//
// Parameters:
//   - userID: マッチを操作するユーザー
//   - mode: ゲームモード
//   - seed: ピース生成の乱数シード（0 で現在時刻）
//
// Returns:
//   - MatchSnapshot: 作成直後のマッチの状態
func (sm *SessionManager) CreateMatch(userID string, mode MatchMode, seed int64) MatchSnapshot {
	m := NewMatch(MatchConfig{
		ID:     uuid.New().String(),
		UserID: userID,
		Mode:   mode,
		Seed:   seed,
		Logger: sm.logger,
	})
	snap := m.Snapshot()

	sm.mu.Lock()
	sm.matches[m.ID] = m
	sm.snapshots[m.ID] = snap
	sm.mu.Unlock()

	sm.logger.Info("match created",
		zap.String("game_id", m.ID),
		zap.String("user_id", userID),
		zap.String("mode", string(mode)))
	return snap
}

// GetMatchSnapshot は最後に進めたときのマッチの状態を返します。
func (sm *SessionManager) GetMatchSnapshot(matchID string) (MatchSnapshot, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	snap, ok := sm.snapshots[matchID]
	if !ok {
		return MatchSnapshot{}, ErrGameNotFound
	}
	return snap, nil
}

// RegisterClient は認証済みの WebSocket 接続をマッチに結び付けます。
// 同じマッチに既存の接続があれば置き換えます。
func (sm *SessionManager) RegisterClient(matchID, userID string, conn *websocket.Conn) error {
	sm.mu.RLock()
	m, ok := sm.matches[matchID]
	sm.mu.RUnlock()
	if !ok {
		return ErrGameNotFound
	}
	if m.UserID != userID {
		return ErrNotMatchOwner
	}

	client := &Client{
		UserID:  userID,
		MatchID: matchID,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		logger:  sm.logger.With(zap.String("game_id", matchID), zap.String("user_id", userID)),
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	select {
	case sm.register <- client:
	case <-sm.quit:
		return ErrShuttingDown
	}

	go sm.readPump(client)
	go client.writePump()
	return nil
}

// Shutdown はメインループを止め、全クライアントを切断し、実行中の結果保存を待ちます。
func (sm *SessionManager) Shutdown() {
	sm.logger.Info("shutting down session manager")
	sm.quitOnce.Do(func() { close(sm.quit) })

	sm.mu.Lock()
	for matchID, client := range sm.clients {
		if client.Conn != nil {
			client.Conn.Close()
		}
		client.SafeClose()
		delete(sm.clients, matchID)
	}
	sm.matches = make(map[string]*Match)
	sm.snapshots = make(map[string]MatchSnapshot)
	sm.mu.Unlock()

	sm.saves.Wait()
	sm.logger.Info("session manager stopped")
}

func (sm *SessionManager) handleRegister(client *Client) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	m, ok := sm.matches[client.MatchID]
	if !ok {
		client.SafeClose()
		return
	}
	if old, exists := sm.clients[client.MatchID]; exists && old != client {
		sm.logger.Info("replacing existing connection", zap.String("game_id", client.MatchID))
		old.SafeClose()
	}
	sm.clients[client.MatchID] = client

	m.Start()
	sm.publishLocked(m)
	sm.logger.Info("client registered",
		zap.String("game_id", client.MatchID),
		zap.String("user_id", client.UserID))
}

// handleUnregister はクライアントの切断を処理します。途中で抜けたマッチは終了させて破棄します。
func (sm *SessionManager) handleUnregister(client *Client) {
	sm.mu.Lock()
	current, ok := sm.clients[client.MatchID]
	if !ok || current != client {
		// 置き換え済みの古い接続
		sm.mu.Unlock()
		client.SafeClose()
		return
	}
	client.SafeClose()
	delete(sm.clients, client.MatchID)

	m, ok := sm.matches[client.MatchID]
	var abandoned bool
	if ok {
		wasRunning := m.Status == MatchPlaying || m.Status == MatchPaused
		m.Abandon()
		abandoned = wasRunning
		delete(sm.matches, client.MatchID)
		delete(sm.snapshots, client.MatchID)
	}
	sm.mu.Unlock()

	sm.logger.Info("client unregistered",
		zap.String("game_id", client.MatchID),
		zap.Bool("abandoned", abandoned))
	if abandoned {
		sm.recordResult(m)
	}
}

// handleEvent はクライアントからのメッセージを対応するマッチに適用します。
func (sm *SessionManager) handleEvent(event clientEvent) {
	sm.mu.Lock()
	m, ok := sm.matches[event.MatchID]
	if !ok {
		sm.mu.Unlock()
		return
	}

	before := m.Status
	switch event.Type {
	case "keydown":
		m.HandleKey(true, event.Code)
	case "keyup":
		m.HandleKey(false, event.Code)
	case "pause":
		m.TogglePause()
	case "restart":
		m.Restart()
	default:
		sm.logger.Debug("unknown message type",
			zap.String("game_id", event.MatchID),
			zap.String("type", event.Type))
		sm.mu.Unlock()
		return
	}
	sm.publishLocked(m)
	finished := before != MatchFinished && m.Status == MatchFinished
	sm.mu.Unlock()

	if finished {
		sm.recordResult(m)
	}
}

// tick は全マッチを1フレーム進め、進めたマッチの状態をクライアントに送ります。
func (sm *SessionManager) tick() {
	var finished []*Match

	sm.mu.Lock()
	for _, m := range sm.matches {
		if !m.Step(sm.step) {
			continue
		}
		sm.publishLocked(m)
		if m.Status == MatchFinished {
			finished = append(finished, m)
		}
	}
	sm.mu.Unlock()

	for _, m := range finished {
		sm.recordResult(m)
	}
}

// cleanupPending はクライアントが一度も接続しないまま PendingTimeout を過ぎたマッチを破棄します。
func (sm *SessionManager) cleanupPending(now time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, m := range sm.matches {
		if m.Status == MatchWaiting && now.Sub(m.CreatedAt) > PendingTimeout {
			delete(sm.matches, id)
			delete(sm.snapshots, id)
			sm.logger.Info("pending match expired", zap.String("game_id", id))
		}
	}
}

// publishLocked はスナップショットを更新し、接続中のクライアントに送ります。sm.mu を保持して呼んでください。
func (sm *SessionManager) publishLocked(m *Match) {
	snap := m.Snapshot()
	sm.snapshots[m.ID] = snap

	client, ok := sm.clients[m.ID]
	if !ok {
		return
	}
	data, err := json.Marshal(ServerMessage{Type: "state", Match: &snap})
	if err != nil {
		sm.logger.Error("failed to marshal match state", zap.String("game_id", m.ID), zap.Error(err))
		return
	}
	if !client.SafeSend(data) {
		sm.logger.Debug("dropped state frame", zap.String("game_id", m.ID))
	}
}

// recordResult は終了したマッチの結果を保存し、コインを付与します。
// ループを止めないように別のゴルーチンで実行します。
func (sm *SessionManager) recordResult(m *Match) {
	result := m.Result()
	logger := sm.logger.With(zap.String("game_id", m.ID), zap.String("user_id", result.UserID))
	logger.Info("match finished",
		zap.Int("score", result.Score),
		zap.Int("lines", result.Lines),
		zap.String("winner", m.Winner))

	if sm.results == nil && sm.coins == nil {
		return
	}

	sm.saves.Add(1)
	go func() {
		defer sm.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		if sm.results != nil {
			if _, err := sm.results.CreateResult(ctx, result); err != nil {
				logger.Error("failed to save result", zap.Error(err))
			}
		}
		if sm.coins != nil {
			if _, err := sm.coins.AwardCoins(ctx, result.UserID, result.Score); err != nil {
				logger.Error("failed to award coins", zap.Error(err))
			}
		}
	}()
}
