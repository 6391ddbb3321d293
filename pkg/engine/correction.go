package engine

import . "github.com/mzaitsev/tokin/pkg/shogi"

const (
	corrEntries     = 16384
	corrGrain       = 256
	corrWeightScale = 256
	corrMax         = corrGrain * 32
)

// correctionService learns the signed gap between search results and static
// evaluation, keyed by partial position keys: pawn structure and king+hand.
type correctionService struct {
	pawn     [2][corrEntries]int16
	kingHand [2][corrEntries]int16
}

func (c *correctionService) Clear() {
	c.pawn = [2][corrEntries]int16{}
	c.kingHand = [2][corrEntries]int16{}
}

func corrUpdateEntry(v *int16, scaledError, weight int) {
	var blended = (int(*v)*(corrWeightScale-weight) + scaledError*weight) / corrWeightScale
	*v = int16(Max(-corrMax, Min(corrMax, blended)))
}

func (c *correctionService) Update(p *Position, depth, searchScore, staticEval int) {
	var scaledError = (searchScore - staticEval) * corrGrain
	var weight = Min(depth+1, 16)
	var stm = p.Stm
	corrUpdateEntry(&c.pawn[stm][p.PawnKey%corrEntries], scaledError, weight)
	corrUpdateEntry(&c.kingHand[stm][p.KingHandKey%corrEntries], scaledError, weight)
}

// Correct adds the learned bias to a static evaluation, keeping the result
// inside the win window.
func (c *correctionService) Correct(p *Position, score int) int {
	var stm = p.Stm
	var correction = int(c.pawn[stm][p.PawnKey%corrEntries]) / corrGrain
	correction += int(c.kingHand[stm][p.KingHandKey%corrEntries]) / corrGrain
	return Max(-valueWin+1, Min(valueWin-1, score+correction))
}
