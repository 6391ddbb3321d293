package engine

import . "github.com/mzaitsev/tokin/pkg/shogi"

const (
	historyMax   = 1 << 14
	historyMaxBonus = 1536
)

const pieceToSize = PieceTypeCount * SquareCount

// historyService holds one worker's move-ordering state: butterfly history
// over (isDrop, pieceType, toSquare) and two-ply continuation history.
type historyService struct {
	butterfly    [2][PieceTypeCount][SquareCount]int16
	continuation []int16
}

func newHistoryService() *historyService {
	return &historyService{
		continuation: make([]int16, pieceToSize*pieceToSize),
	}
}

func (h *historyService) Clear() {
	h.butterfly = [2][PieceTypeCount][SquareCount]int16{}
	for i := range h.continuation {
		h.continuation[i] = 0
	}
}

func historyBonus(depth int) int {
	return Min(depth*depth*8, historyMaxBonus)
}

// Gravity update: the table self-limits at +-historyMax.
func updateHistory(v *int16, bonus int) {
	var abs = bonus
	if abs < 0 {
		abs = -abs
	}
	*v += int16(bonus - int(*v)*abs/historyMax)
}

func pieceToIndex(pt PieceType, to int) int {
	return int(pt)*SquareCount + to
}

// moverPieceType resolves the piece that move would place on its target.
func moverPieceType(p *Position, move Move) PieceType {
	if move.IsDrop() {
		return move.DropPiece()
	}
	var pt = p.PieceOn(move.From()).Type()
	if move.IsPromotion() {
		pt = pt.Promote()
	}
	return pt
}

// historyContext carries the continuation slots of the last two moves.
type historyContext struct {
	history *historyService
	cont1   int
	cont2   int
}

// getHistoryContext derives the continuation indices from the moves that led
// to the position at height.
func (t *thread) getHistoryContext(height int) historyContext {
	var ctx = historyContext{history: t.history, cont1: -1, cont2: -1}
	var p = &t.stack[height].position
	if prev1 := p.LastMove; prev1 != MoveEmpty {
		ctx.cont1 = pieceToIndex(p.PieceOn(prev1.To()).Type(), prev1.To())
	}
	if height > 0 {
		if prev2 := t.stack[height-1].position.LastMove; prev2 != MoveEmpty {
			ctx.cont2 = pieceToIndex(p.PieceOn(prev2.To()).Type(), prev2.To())
		}
	}
	return ctx
}

func (ctx *historyContext) ReadTotal(p *Position, move Move) int {
	var pt = moverPieceType(p, move)
	var drop = let(move.IsDrop(), 1, 0)
	var score = int(ctx.history.butterfly[drop][pt][move.To()])
	var pieceTo = pieceToIndex(pt, move.To())
	if ctx.cont1 >= 0 {
		score += int(ctx.history.continuation[ctx.cont1*pieceToSize+pieceTo])
	}
	if ctx.cont2 >= 0 {
		score += int(ctx.history.continuation[ctx.cont2*pieceToSize+pieceTo])
	}
	return score
}

// Update rewards the cut move and penalizes the quiets tried before it.
func (ctx *historyContext) Update(p *Position, quietsSearched []Move, bestMove Move, depth int) {
	var bonus = historyBonus(depth)
	for _, move := range quietsSearched {
		var signed = -bonus
		if move == bestMove {
			signed = bonus
		}
		var pt = moverPieceType(p, move)
		var drop = let(move.IsDrop(), 1, 0)
		updateHistory(&ctx.history.butterfly[drop][pt][move.To()], signed)
		var pieceTo = pieceToIndex(pt, move.To())
		if ctx.cont1 >= 0 {
			updateHistory(&ctx.history.continuation[ctx.cont1*pieceToSize+pieceTo], signed)
		}
		if ctx.cont2 >= 0 {
			updateHistory(&ctx.history.continuation[ctx.cont2*pieceToSize+pieceTo], signed)
		}
		if move == bestMove {
			break
		}
	}
}
