package tetris

import (
	"encoding/json"
	"fmt"
)

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeI PieceType = iota // 0: I-ミノ
	TypeO                  // 1: O-ミノ
	TypeT                  // 2: T-ミノ
	TypeS                  // 3: S-ミノ
	TypeZ                  // 4: Z-ミノ
	TypeJ                  // 5: J-ミノ
	TypeL                  // 6: L-ミノ
)

// AllPieceTypes は7種類すべてのテトリミノです（7-bag の中身）。
var AllPieceTypes = [...]PieceType{TypeI, TypeO, TypeT, TypeS, TypeZ, TypeJ, TypeL}

// Block は PieceType (0-6) を BlockType (1-7) に変換します。
func (t PieceType) Block() BlockType {
	return BlockType(t + 1)
}

// String はテトリミノの種類を "I", "O" などの文字列で返します。
func (t PieceType) String() string {
	return PieceTypeToString(t)
}

// MarshalJSON は種類を文字列としてシリアライズします（レンダラー側の扱いやすさのため）。
func (t PieceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON は "I", "O" などの文字列から種類を復元します。
func (t *PieceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	pt, ok := StringToPieceType(s)
	if !ok {
		return fmt.Errorf("unknown piece type %q", s)
	}
	*t = pt
	return nil
}

// Rotation は SRS の回転状態です。
type Rotation int

const (
	RotationSpawn Rotation = iota // 0: 出現時の向き
	RotationRight                 // R: 時計回りに90度
	RotationFlip                  // 2: 180度
	RotationLeft                  // L: 反時計回りに90度
)

// Shape は1つの回転状態における占有マスを表す正方行列です。
// I は 4x4、O は 2x2、その他は 3x3 です。
type Shape [][]BlockType

// Piece はテトリミノの現在の状態（種類、形、ボード上の左上座標、回転状態）を表します。
// 値として扱い、移動や回転では常に新しい Piece を作ってから IsValid で検証します。
type Piece struct {
	Type     PieceType `json:"type"`     // テトリミノの種類
	Shape    Shape     `json:"shape"`    // 現在の回転状態の形
	X        int       `json:"x"`        // ボード上のX座標（形の左上）
	Y        int       `json:"y"`        // ボード上のY座標（負の値は見えない領域の上）
	Rotation Rotation  `json:"rotation"` // 回転状態 (0, R, 2, L)
}

// spawnOffsets は各テトリミノの出現位置です。
var spawnOffsets = map[PieceType][2]int{
	TypeI: {3, 0},
	TypeO: {4, 0},
	TypeT: {3, 1},
	TypeS: {3, 1},
	TypeZ: {3, 1},
	TypeJ: {3, 1},
	TypeL: {3, 1},
}

// pieceShapes は各テトリミノの回転状態ごとの形です。
// 文字列の '#' が埋まっているマスを表します。O は回転しないので1状態のみです。
var pieceShapes = map[PieceType][]Shape{
	TypeI: {
		parseShape(TypeI, "....", "####", "....", "...."),
		parseShape(TypeI, "..#.", "..#.", "..#.", "..#."),
		parseShape(TypeI, "....", "....", "####", "...."),
		parseShape(TypeI, ".#..", ".#..", ".#..", ".#.."),
	},
	TypeO: {
		parseShape(TypeO, "##", "##"),
	},
	TypeT: {
		parseShape(TypeT, ".#.", "###", "..."),
		parseShape(TypeT, ".#.", ".##", ".#."),
		parseShape(TypeT, "...", "###", ".#."),
		parseShape(TypeT, ".#.", "##.", ".#."),
	},
	TypeS: {
		parseShape(TypeS, ".##", "##.", "..."),
		parseShape(TypeS, ".#.", ".##", "..#"),
		parseShape(TypeS, "...", ".##", "##."),
		parseShape(TypeS, "#..", "##.", ".#."),
	},
	TypeZ: {
		parseShape(TypeZ, "##.", ".##", "..."),
		parseShape(TypeZ, "..#", ".##", ".#."),
		parseShape(TypeZ, "...", "##.", ".##"),
		parseShape(TypeZ, ".#.", "##.", "#.."),
	},
	TypeJ: {
		parseShape(TypeJ, "#..", "###", "..."),
		parseShape(TypeJ, ".##", ".#.", ".#."),
		parseShape(TypeJ, "...", "###", "..#"),
		parseShape(TypeJ, ".#.", ".#.", "##."),
	},
	TypeL: {
		parseShape(TypeL, "..#", "###", "..."),
		parseShape(TypeL, ".#.", ".#.", ".##"),
		parseShape(TypeL, "...", "###", "#.."),
		parseShape(TypeL, "##.", ".#.", ".#."),
	},
}

func parseShape(t PieceType, rows ...string) Shape {
	shape := make(Shape, len(rows))
	for y, row := range rows {
		shape[y] = make([]BlockType, len(row))
		for x, c := range row {
			if c == '#' {
				shape[y][x] = t.Block()
			}
		}
	}
	return shape
}

// NewPiece は指定された種類のテトリミノを出現位置・回転状態0で作成します。
func NewPiece(t PieceType) Piece {
	offset := spawnOffsets[t]
	return Piece{
		Type:     t,
		Shape:    pieceShapes[t][RotationSpawn],
		X:        offset[0],
		Y:        offset[1],
		Rotation: RotationSpawn,
	}
}

// RotationCount はその種類が取りうる回転状態の数です（O は1、それ以外は4）。
func RotationCount(t PieceType) int {
	return len(pieceShapes[t])
}

// Moved は (dx, dy) だけずらした新しいピースを返します。
func (p Piece) Moved(dx, dy int) Piece {
	p.X += dx
	p.Y += dy
	return p
}

// WithRotation は回転状態と形だけを差し替えた新しいピースを返します。位置は変えません。
func (p Piece) WithRotation(r Rotation) Piece {
	shapes := pieceShapes[p.Type]
	p.Rotation = r
	p.Shape = shapes[int(r)%len(shapes)]
	return p
}

// Blocks は現在の形に基づいて、埋まっているマスの相対座標の配列を返します。
//
// Returns:
//   [][2]int: 各ブロックの相対座標の配列。例: {{x1, y1}, {x2, y2}, ...}
func (p Piece) Blocks() [][2]int {
	blocks := make([][2]int, 0, 4)
	for y, row := range p.Shape {
		for x, cell := range row {
			if cell != BlockEmpty {
				blocks = append(blocks, [2]int{x, y})
			}
		}
	}
	return blocks
}

// StringToPieceType は文字列のテトリミノタイプ（"I", "O", "T"など）をPieceTypeに変換します。
func StringToPieceType(s string) (PieceType, bool) {
	switch s {
	case "I":
		return TypeI, true
	case "O":
		return TypeO, true
	case "T":
		return TypeT, true
	case "S":
		return TypeS, true
	case "Z":
		return TypeZ, true
	case "J":
		return TypeJ, true
	case "L":
		return TypeL, true
	default:
		return TypeI, false // デフォルト値とfalseを返す
	}
}

// PieceTypeToString はPieceTypeを文字列表現に変換します。
func PieceTypeToString(t PieceType) string {
	switch t {
	case TypeI:
		return "I"
	case TypeO:
		return "O"
	case TypeT:
		return "T"
	case TypeS:
		return "S"
	case TypeZ:
		return "Z"
	case TypeJ:
		return "J"
	case TypeL:
		return "L"
	default:
		return "?"
	}
}
