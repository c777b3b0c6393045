package tetris

import (
	"math/rand"

	"github.com/progate-hackathon-strawberry-flavor/tetris-engine/internal/models/tetris"
)

// PreviewSize は先読みキューに常に保持しておくピースの数です。
const PreviewSize = 6

// Randomizer は7-bagシステムでピースの種類を生成します。
// バッグが空になったら7種類すべてを入れてシャッフルし、先頭から1つずつ取り出します。
// そのため同じ種類が連続するのは、バッグの末尾と次のバッグの先頭が一致したときの2連続までです。
type Randomizer struct {
	rng   *rand.Rand
	bag   []tetris.PieceType // 現在のバッグの残り
	queue []tetris.PieceType // 先読みキュー（PreviewSize 個）
}

// NewRandomizer は新しい Randomizer を作成し、先読みキューを埋めます。
func NewRandomizer(rng *rand.Rand) *Randomizer {
	r := &Randomizer{rng: rng}
	r.fill()
	return r
}

// Next はキューの先頭の種類を取り出し、キューを補充します。
func (r *Randomizer) Next() tetris.PieceType {
	next := r.queue[0]
	r.queue = r.queue[1:]
	r.fill()
	return next
}

// Preview は先読みキューのコピーを返します。
func (r *Randomizer) Preview() []tetris.PieceType {
	preview := make([]tetris.PieceType, len(r.queue))
	copy(preview, r.queue)
	return preview
}

func (r *Randomizer) fill() {
	for len(r.queue) < PreviewSize {
		if len(r.bag) == 0 {
			r.refillBag()
		}
		r.queue = append(r.queue, r.bag[0])
		r.bag = r.bag[1:]
	}
}

// refillBag は7種類を入れた新しいバッグを作り、偏りのないシャッフル（Fisher-Yates）をかけます。
func (r *Randomizer) refillBag() {
	bag := make([]tetris.PieceType, len(tetris.AllPieceTypes))
	copy(bag, tetris.AllPieceTypes[:])
	r.rng.Shuffle(len(bag), func(i, j int) {
		bag[i], bag[j] = bag[j], bag[i]
	})
	r.bag = bag
}
