package models

// Theme はブロックと盤面の配色セットです。描画はクライアント側で行うため、サーバーは色コードを配るだけです。
type Theme struct {
	Key    string            `json:"key"`
	Name   string            `json:"name"`
	Price  int               `json:"price"`  // 解放に必要なコイン
	Colors map[string]string `json:"colors"` // I,O,T,S,Z,J,L,G(お邪魔),board,grid -> 16進カラーコード
}

// Themes はショップで扱う全テーマです。表示順に並んでいます。
var Themes = []Theme{
	{
		Key:   "classic",
		Name:  "Classic",
		Price: 0,
		Colors: map[string]string{
			"I": "#00FFFF", "O": "#FFFF00", "T": "#800080", "S": "#00FF00",
			"Z": "#FF0000", "J": "#0000FF", "L": "#FFA500", "G": "#4B5563",
			"board": "#111827", "grid": "#374151",
		},
	},
	{
		Key:   "synthwave",
		Name:  "Synthwave",
		Price: 1000,
		Colors: map[string]string{
			"I": "#f92672", "O": "#fd971f", "T": "#ae81ff", "S": "#a6e22e",
			"Z": "#f92672", "J": "#66d9ef", "L": "#fd971f", "G": "#49483e",
			"board": "#272822", "grid": "#75715e",
		},
	},
	{
		Key:   "ocean",
		Name:  "Ocean",
		Price: 1500,
		Colors: map[string]string{
			"I": "#67D5F0", "O": "#F0E68C", "T": "#9370DB", "S": "#3CB371",
			"Z": "#FF6347", "J": "#1E90FF", "L": "#FFD700", "G": "#B0C4DE",
			"board": "#000080", "grid": "#ADD8E6",
		},
	},
}

// FindTheme はキーからテーマを探します。
func FindTheme(key string) (Theme, bool) {
	for _, t := range Themes {
		if t.Key == key {
			return t, true
		}
	}
	return Theme{}, false
}
