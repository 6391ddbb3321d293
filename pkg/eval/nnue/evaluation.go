package eval

import (
	. "github.com/mzaitsev/tokin/pkg/shogi"
)

const MaxHeight = 128

// Evaluations stay inside the win window so mate scores remain distinguishable.
const maxEval = 29_000

const (
	updAdd = 1
	updSub = -1
)

type update struct {
	feature [2]int32 // per perspective: black, white
	coeff   int8
}

type updates struct {
	items [6]update
	size  int
}

func (u *updates) push(blackFeature, whiteFeature, coeff int) {
	u.items[u.size] = update{
		feature: [2]int32{int32(blackFeature), int32(whiteFeature)},
		coeff:   int8(coeff),
	}
	u.size++
}

type accumulator [2][L1Size]int16

type EvaluationService struct {
	*Weights
	stack   [MaxHeight + 1]accumulator
	current int
}

func NewEvaluationService(weights *Weights) *EvaluationService {
	return &EvaluationService{Weights: weights}
}

// Init refreshes the accumulator pair from the full position.
func (e *EvaluationService) Init(p *Position) {
	e.current = 0
	var acc = &e.stack[0]
	for persp := Black; persp <= White; persp++ {
		acc[persp] = e.FtBiases
	}
	for occ := p.AllPieces(); !occ.IsEmpty(); {
		var sq = occ.PopFirst()
		var piece = p.PieceOn(sq)
		e.activate(acc, psqtFeatureIndex(Black, piece, sq), psqtFeatureIndex(White, piece, sq))
	}
	for c := Black; c <= White; c++ {
		for slot := 0; slot < HandCount; slot++ {
			for n := 0; n < p.Hands[c].Count(handPieceType(slot)); n++ {
				e.activate(acc,
					handFeatureIndex(Black, slot, c, n),
					handFeatureIndex(White, slot, c, n))
			}
		}
	}
}

func handPieceType(slot int) PieceType {
	var types = [HandCount]PieceType{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook}
	return types[slot]
}

func (e *EvaluationService) activate(acc *accumulator, blackFeature, whiteFeature int) {
	var bw = &e.FtWeights[blackFeature]
	var ww = &e.FtWeights[whiteFeature]
	for i := 0; i < L1Size; i++ {
		acc[Black][i] += bw[i]
	}
	for i := 0; i < L1Size; i++ {
		acc[White][i] += ww[i]
	}
}

// MakeMove pushes a child accumulator computed from at most two additions and
// two subtractions per perspective. p is the position before the move.
func (e *EvaluationService) MakeMove(p *Position, move Move) {
	var upd updates
	var us = p.Stm

	if move != MoveEmpty {
		if move.IsDrop() {
			var pt = move.DropPiece()
			var slot = handSlotOf(pt)
			var count = p.Hands[us].Count(pt)
			upd.push(
				psqtFeatureIndex(Black, MakePiece(pt, us), move.To()),
				psqtFeatureIndex(White, MakePiece(pt, us), move.To()),
				updAdd)
			upd.push(
				handFeatureIndex(Black, slot, us, count-1),
				handFeatureIndex(White, slot, us, count-1),
				updSub)
		} else {
			var from, to = move.From(), move.To()
			var moving = p.PieceOn(from)
			upd.push(
				psqtFeatureIndex(Black, moving, from),
				psqtFeatureIndex(White, moving, from),
				updSub)
			if captured := p.PieceOn(to); captured != PieceNone {
				upd.push(
					psqtFeatureIndex(Black, captured, to),
					psqtFeatureIndex(White, captured, to),
					updSub)
				var base = captured.Type().Unpromote()
				var slot = handSlotOf(base)
				var count = p.Hands[us].Count(base)
				upd.push(
					handFeatureIndex(Black, slot, us, count),
					handFeatureIndex(White, slot, us, count),
					updAdd)
			}
			var after = moving
			if move.IsPromotion() {
				after = MakePiece(moving.Type().Promote(), us)
			}
			upd.push(
				psqtFeatureIndex(Black, after, to),
				psqtFeatureIndex(White, after, to),
				updAdd)
		}
	}

	var src = &e.stack[e.current]
	e.current++
	var dst = &e.stack[e.current]
	*dst = *src
	for i := 0; i < upd.size; i++ {
		var item = &upd.items[i]
		for persp := Black; persp <= White; persp++ {
			var w = &e.FtWeights[item.feature[persp]]
			var acc = &dst[persp]
			if item.coeff == updAdd {
				for j := 0; j < L1Size; j++ {
					acc[j] += w[j]
				}
			} else {
				for j := 0; j < L1Size; j++ {
					acc[j] -= w[j]
				}
			}
		}
	}
}

func (e *EvaluationService) UnmakeMove() {
	e.current--
}

func handSlotOf(pt PieceType) int {
	switch pt {
	case Pawn:
		return HandPawn
	case Lance:
		return HandLance
	case Knight:
		return HandKnight
	case Silver:
		return HandSilver
	case Gold:
		return HandGold
	case Bishop:
		return HandBishop
	}
	return HandRook
}

// EvaluateQuick runs the forward pass on the current accumulator.
func (e *EvaluationService) EvaluateQuick(p *Position) int {
	var output = e.forward(&e.stack[e.current], p.Stm)
	return Max(-maxEval, Min(maxEval, output))
}

// Evaluate refreshes and evaluates; used off the search path.
func (e *EvaluationService) Evaluate(p *Position) int {
	e.Init(p)
	return e.EvaluateQuick(p)
}

func clampAct(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > actMax {
		return actMax
	}
	return v
}

// forward: clipped-ReLU on the two perspective halves, 8-bit L1 to L2Size
// with CReLU and SCReLU activations concatenated, 32-bit L2, L3 dot product.
func (e *EvaluationService) forward(acc *accumulator, stm Color) int {
	var halves = [2]*[L1Size]int16{&acc[stm], &acc[stm.Flip()]}

	var pre [L2Size]int32
	copy(pre[:], e.L1Biases[:])
	for half := 0; half < 2; half++ {
		var src = halves[half]
		for i := 0; i < L1Size; i++ {
			var v = int32(src[i])
			if v <= 0 {
				continue
			}
			if v > FtQ {
				v = FtQ
			}
			var w = &e.L1Weights[half*L1Size+i]
			for j := 0; j < L2Size; j++ {
				pre[j] += v * int32(w[j])
			}
		}
	}

	var act [2 * L2Size]int32
	for j := 0; j < L2Size; j++ {
		var c = clampAct(pre[j] >> l1Shift)
		act[j] = c
		act[L2Size+j] = c * c >> l2Shift
	}

	var hidden [L3Size]int32
	copy(hidden[:], e.L2Biases[:])
	for j := 0; j < 2*L2Size; j++ {
		if act[j] == 0 {
			continue
		}
		var w = &e.L2Weights[j]
		for k := 0; k < L3Size; k++ {
			hidden[k] += act[j] * w[k]
		}
	}

	var out = e.L3Bias
	for k := 0; k < L3Size; k++ {
		out += clampAct(hidden[k]>>l2Shift) * e.L3Weights[k]
	}

	return int(out) * Scale / (FtQ * L1Q)
}
