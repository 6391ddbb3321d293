package eval

import . "github.com/mzaitsev/tokin/pkg/shogi"

// Network shape and quantization constants. The weight file must match this
// layout exactly; LoadWeights rejects blobs of any other size.
const (
	FtQ   = 255
	L1Q   = 64
	Scale = 400

	L1Size = 256
	L2Size = 16
	L3Size = 32

	// Board features: piece type x square per point of view, plus per-count
	// hand planes for the seven droppable types.
	HandFeatures = 38
	PieceStride  = SquareCount
	HandOffset   = PieceStride * PieceTypeCount
	ColorStride  = HandOffset + HandFeatures
	FtSize       = 2 * ColorStride
)

// Fixed-point shifts between layers. The trainer bakes the same scheme into
// the exported weights.
const (
	l1Shift = 8
	l2Shift = 6
	actMax  = 255
)

type Weights struct {
	FtWeights [FtSize][L1Size]int16
	FtBiases  [L1Size]int16
	L1Weights [2 * L1Size][L2Size]int8
	L1Biases  [L2Size]int32
	L2Weights [2 * L2Size][L3Size]int32
	L2Biases  [L3Size]int32
	L3Weights [L3Size]int32
	L3Bias    int32
}

// WeightsFileSize is the exact byte length of a serialized Weights value.
const WeightsFileSize = FtSize*L1Size*2 + L1Size*2 +
	2*L1Size*L2Size + L2Size*4 +
	2*L2Size*L3Size*4 + L3Size*4 +
	L3Size*4 + 4

var handOffsets = [HandCount]int{
	HandPawn:   0,
	HandLance:  18,
	HandKnight: 22,
	HandSilver: 26,
	HandGold:   30,
	HandBishop: 34,
	HandRook:   36,
}

// psqtFeatureIndex maps a board piece to its input plane for one perspective.
func psqtFeatureIndex(perspective Color, piece Piece, sq int) int {
	if perspective == White {
		sq = RotateSquare(sq)
	}
	var side = 0
	if piece.Color() != perspective {
		side = 1
	}
	return side*ColorStride + int(piece.Type())*PieceStride + sq
}

// handFeatureIndex maps the n-th held piece of a type to its input plane.
func handFeatureIndex(perspective Color, slot int, handColor Color, countMinusOne int) int {
	var side = 0
	if handColor != perspective {
		side = 1
	}
	return side*ColorStride + HandOffset + handOffsets[slot] + countMinusOne
}
