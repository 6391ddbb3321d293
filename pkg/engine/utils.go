package engine

import (
	"math"

	. "github.com/mzaitsev/tokin/pkg/shogi"
)

const (
	stackSize     = 128
	maxHeight     = stackSize - 1
	valueDraw     = 0
	valueMate     = 30000
	valueInfinity = valueMate + 1
	valueWin      = valueMate - 2*maxHeight
	valueLoss     = -valueWin
	valueNone     = valueInfinity + 1
)

func winIn(height int) int {
	return valueMate - height
}

func lossIn(height int) int {
	return -valueMate + height
}

// Mate scores are stored relative to the node and rebased on probe.
func valueToTT(v, height int) int {
	if v >= valueWin {
		return v + height
	}
	if v <= valueLoss {
		return v - height
	}
	return v
}

func valueFromTT(v, height int) int {
	if v >= valueWin {
		return v - height
	}
	if v <= valueLoss {
		return v + height
	}
	return v
}

func newUsiScore(v int) UsiScore {
	if v >= valueWin {
		return UsiScore{Mate: valueMate - v}
	} else if v <= valueLoss {
		return UsiScore{Mate: -(valueMate + v)}
	}
	// clamp draw jitter to zero for reporting
	if v >= -2 && v <= 2 {
		v = 0
	}
	return UsiScore{Centipawns: v}
}

// drawScore breaks repetition ties without steering into cycles.
func drawScore(nodes int64) int {
	return 2 - int(nodes%4)
}

type Options struct {
	Hash       int
	Threads    int
	MultiPV    int
	OwnBook    bool
	EvalFile   string
	ProgressMinNodes int

	reductions [64][64]int
	lmp        [2][9]int
}

func NewOptions() Options {
	var result = Options{
		Hash:             64,
		Threads:          1,
		MultiPV:          1,
		ProgressMinNodes: 200_000,
	}
	result.initLmr()
	result.initLmp()
	return result
}

func (o *Options) Lmr(d, m int) int {
	return o.reductions[Min(d, 63)][Min(m, 63)]
}

func (o *Options) initLmr() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			o.reductions[d][m] = int(0.5 + math.Log(float64(d))*math.Log(float64(m))/2.25)
		}
	}
}

func (o *Options) Lmp(improving bool, depth int) int {
	return o.lmp[let(improving, 1, 0)][Min(depth, 8)]
}

func (o *Options) initLmp() {
	for d := 0; d < 9; d++ {
		o.lmp[0][d] = (3 + d*d) / 2
		o.lmp[1][d] = 3 + d*d
	}
}

func let(ok bool, yes, no int) int {
	if ok {
		return yes
	}
	return no
}
