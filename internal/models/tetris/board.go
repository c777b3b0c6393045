package tetris

const (
	BoardWidth    = 10                          // テトリスボードの幅
	VisibleHeight = 20                          // 表示される行数
	HiddenRows    = 2                           // 表示領域の上にある見えない行（スポーン・はみ出し用）
	BoardHeight   = VisibleHeight + HiddenRows // ボード全体の高さ
)

// BlockType はボード上のマスの種類を表します。
// 各テトリミノの種類もブロックタイプとして扱います。
type BlockType int

const (
	BlockEmpty   BlockType = iota // 0: 空のマス
	BlockI                        // 1: I-テトリミノ由来のブロック (PieceType 0 + 1)
	BlockO                        // 2: O-テトリミノ由来のブロック (PieceType 1 + 1)
	BlockT                        // 3: T-テトリミノ由来のブロック (PieceType 2 + 1)
	BlockS                        // 4: S-テトリミノ由来のブロック (PieceType 3 + 1)
	BlockZ                        // 5: Z-テトリミノ由来のブロック (PieceType 4 + 1)
	BlockJ                        // 6: J-テトリミノ由来のブロック (PieceType 5 + 1)
	BlockL                        // 7: L-テトリミノ由来のブロック (PieceType 6 + 1)
	BlockGarbage                  // 8: お邪魔ブロック（シングルプレイでは使用しない）
)

// Board はテトリスのゲームボードを表す2次元配列です。
// Board[y][x] でアクセスします。y=0 が最上段で、先頭の HiddenRows 行は見えない領域です。
// 配列なので代入するだけで独立したコピーになります（AI の試行用ボードなどに利用）。
type Board [BoardHeight][BoardWidth]BlockType

// NewBoard は新しい空のボードを初期化して返します。
// Goの配列はデフォルトでゼロ値（BlockEmpty）で初期化されるため、特別な初期化は不要です。
func NewBoard() Board {
	var board Board
	return board
}

// IsValid は指定されたピースが現在のボード上に置けるかどうかを判定します。
// 移動・回転・重力・ハードドロップ・ゴースト・AI探索のすべてがこの判定を使います。
//
// Parameters:
//   p : 判定するテトリミノ
// Returns:
//   bool: 壁・床・既存ブロックのいずれとも重ならなければtrue
func (b *Board) IsValid(p Piece) bool {
	for _, block := range p.Blocks() {
		x := p.X + block[0]
		y := p.Y + block[1]

		// 左右の壁、または床との衝突
		if x < 0 || x >= BoardWidth || y >= BoardHeight {
			return false
		}
		// y < 0 は見えない領域のさらに上。既存ブロックとの衝突は発生しない
		if y >= 0 && b[y][x] != BlockEmpty {
			return false
		}
	}
	return true
}

// IsOccupied はマス (x, y) が埋まっているかを返します。
// ボードの範囲外も埋まっているものとして扱います（T-Spin の角判定用）。
func (b *Board) IsOccupied(x, y int) bool {
	if x < 0 || x >= BoardWidth || y < 0 || y >= BoardHeight {
		return true
	}
	return b[y][x] != BlockEmpty
}

// MergePiece は落下したピースをボードに固定します。
// ピースのブロックのタイプでボードのマスを埋めます。
//
// Parameters:
//   p : ボードに固定するテトリミノ
func (b *Board) MergePiece(p Piece) {
	for _, block := range p.Blocks() {
		x := p.X + block[0]
		y := p.Y + block[1]

		// ボードの有効な範囲内でのみマージ
		if x >= 0 && x < BoardWidth && y >= 0 && y < BoardHeight {
			b[y][x] = p.Type.Block()
		}
	}
}

// ClearLines は揃ったラインを消去し、上のブロックを落とします。
// 最下段から上へ走査し、行を消したら同じ行番号をもう一度調べます（上の行がずれてくるため）。
//
// Returns:
//   int: クリアされたライン数
func (b *Board) ClearLines() int {
	cleared := 0
	for y := BoardHeight - 1; y >= 0; {
		if !b.isRowFull(y) {
			y--
			continue
		}
		cleared++
		// y より上の行を1段ずつ下へずらし、最上段に空行を入れる
		for row := y; row > 0; row-- {
			b[row] = b[row-1]
		}
		b[0] = [BoardWidth]BlockType{}
	}
	return cleared
}

// FullRows は消去せずに揃っている行数を数えます（AI の評価用）。
func (b *Board) FullRows() int {
	count := 0
	for y := 0; y < BoardHeight; y++ {
		if b.isRowFull(y) {
			count++
		}
	}
	return count
}

// IsEmpty はボードにブロックが1つもないかを返します（パーフェクトクリア判定）。
func (b *Board) IsEmpty() bool {
	for y := 0; y < BoardHeight; y++ {
		for x := 0; x < BoardWidth; x++ {
			if b[y][x] != BlockEmpty {
				return false
			}
		}
	}
	return true
}

func (b *Board) isRowFull(y int) bool {
	for x := 0; x < BoardWidth; x++ {
		if b[y][x] == BlockEmpty {
			return false
		}
	}
	return true
}
