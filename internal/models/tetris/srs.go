package tetris

// Kick は回転時に試す位置補正です。SRS の表記どおり y は上向きが正です。
type Kick struct {
	X, Y int
}

type rotationTransition struct {
	from, to Rotation
}

// jlstzKicks は J, L, S, T, Z 用の SRS キックテーブルです。
// 各エントリの先頭は常に (0, 0)、つまり補正なしの回転です。
var jlstzKicks = map[rotationTransition][]Kick{
	{RotationSpawn, RotationRight}: {{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	{RotationRight, RotationSpawn}: {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
	{RotationRight, RotationFlip}:  {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
	{RotationFlip, RotationRight}:  {{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	{RotationFlip, RotationLeft}:   {{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
	{RotationLeft, RotationFlip}:   {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	{RotationLeft, RotationSpawn}:  {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	{RotationSpawn, RotationLeft}:  {{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
}

// iKicks は I 用の SRS キックテーブルです。
var iKicks = map[rotationTransition][]Kick{
	{RotationSpawn, RotationRight}: {{0, 0}, {-2, 0}, {1, 0}, {-2, -1}, {1, 2}},
	{RotationRight, RotationSpawn}: {{0, 0}, {2, 0}, {-1, 0}, {2, 1}, {-1, -2}},
	{RotationRight, RotationFlip}:  {{0, 0}, {-1, 0}, {2, 0}, {-1, 2}, {2, -1}},
	{RotationFlip, RotationRight}:  {{0, 0}, {1, 0}, {-2, 0}, {1, -2}, {-2, 1}},
	{RotationFlip, RotationLeft}:   {{0, 0}, {2, 0}, {-1, 0}, {2, 1}, {-1, -2}},
	{RotationLeft, RotationFlip}:   {{0, 0}, {-2, 0}, {1, 0}, {-2, -1}, {1, 2}},
	{RotationLeft, RotationSpawn}:  {{0, 0}, {1, 0}, {-2, 0}, {1, -2}, {-2, 1}},
	{RotationSpawn, RotationLeft}:  {{0, 0}, {-1, 0}, {2, 0}, {-1, 2}, {2, -1}},
}

// Kicks は from から to へ回転するときに順番に試す補正の一覧を返します。
// O ミノや隣接しない回転状態の組には nil を返します。
func Kicks(t PieceType, from, to Rotation) []Kick {
	switch t {
	case TypeO:
		return nil
	case TypeI:
		return iKicks[rotationTransition{from, to}]
	default:
		return jlstzKicks[rotationTransition{from, to}]
	}
}
