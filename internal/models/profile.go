package models

// DefaultThemeKey は最初から解放されているテーマです。
const DefaultThemeKey = "classic"

// PlayerProfile はプレイヤーごとに1レコードだけ保存される進行状況です。
// コインとテーマの解放状況を保持し、JSON にシリアライズしてキーバリューテーブルに保存します。
type PlayerProfile struct {
	Coins          int      `json:"coins"`
	UnlockedThemes []string `json:"unlockedThemes"`
	ActiveThemeKey string   `json:"activeThemeKey"`
}

// NewPlayerProfile は初期状態（コイン0、classic テーマのみ解放済み）のプロフィールを返します。
func NewPlayerProfile() *PlayerProfile {
	return &PlayerProfile{
		Coins:          0,
		UnlockedThemes: []string{DefaultThemeKey},
		ActiveThemeKey: DefaultThemeKey,
	}
}

// HasTheme はテーマが解放済みかどうかを返します。
func (p *PlayerProfile) HasTheme(key string) bool {
	for _, k := range p.UnlockedThemes {
		if k == key {
			return true
		}
	}
	return false
}
