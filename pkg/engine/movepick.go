package engine

import (
	"fmt"

	. "github.com/mzaitsev/tokin/pkg/shogi"
)

type movegenStage int32

const (
	stageTTMove movegenStage = iota
	stageGenerateCaptures
	stageCaptures
	stageKiller1
	stageKiller2
	stageGenerateNonCaptures
	stageNonCaptures
	stageQSGenerateEvasions
	stageQSEvasions
	stageQSGenerateCaptures
	stageQSCaptures
	stageQSGenerateRecaptures
	stageQSRecaptures
	stageEnd
)

// movePicker yields one move per call, lazily generating captures before
// quiets. Selection is an incremental argmax: most nodes cut off after a few
// moves, so a full sort never pays.
type movePicker struct {
	position *Position
	buffer   []OrderedMove
	history  historyContext

	ttMove  Move
	killer1 Move
	killer2 Move

	captureSq int

	stage      movegenStage
	index, end int

	// set by the caller once late-move pruning kicks in
	skipQuiets bool
}

func (mp *movePicker) initMain(p *Position, buffer []OrderedMove, history historyContext, ttMove, killer1, killer2 Move) {
	mp.position = p
	mp.buffer = buffer
	mp.history = history
	mp.ttMove = ttMove
	mp.killer1 = killer1
	mp.killer2 = killer2
	mp.captureSq = SquareNone
	mp.stage = stageTTMove
	mp.index = 0
	mp.end = 0
	mp.skipQuiets = false
}

func (mp *movePicker) initQS(p *Position, buffer []OrderedMove, captureSq int) {
	mp.position = p
	mp.buffer = buffer
	mp.ttMove = MoveEmpty
	mp.killer1 = MoveEmpty
	mp.killer2 = MoveEmpty
	mp.captureSq = captureSq
	mp.index = 0
	mp.end = 0
	mp.skipQuiets = false
	switch {
	case p.IsCheck():
		mp.stage = stageQSGenerateEvasions
	case captureSq != SquareNone:
		mp.stage = stageQSGenerateRecaptures
	default:
		mp.stage = stageQSGenerateCaptures
	}
}

func (mp *movePicker) isSpecial(move Move) bool {
	return move == mp.ttMove || move == mp.killer1 || move == mp.killer2
}

// selectNext pops the highest-scored remaining move passing accept.
func (mp *movePicker) selectNext(accept func(Move) bool) Move {
	for mp.index < mp.end {
		var bestIndex = mp.index
		for i := mp.index + 1; i < mp.end; i++ {
			if mp.buffer[i].Key > mp.buffer[bestIndex].Key {
				bestIndex = i
			}
		}
		if bestIndex != mp.index {
			mp.buffer[mp.index], mp.buffer[bestIndex] = mp.buffer[bestIndex], mp.buffer[mp.index]
		}
		var move = mp.buffer[mp.index].Move
		mp.index++
		if accept(move) {
			return move
		}
	}
	return MoveEmpty
}

func (mp *movePicker) scoreCaptures() {
	for i := mp.index; i < mp.end; i++ {
		mp.buffer[i].Key = int32(mvvlva(mp.position, mp.buffer[i].Move))
	}
}

func (mp *movePicker) scoreNonCaptures() {
	for i := mp.index; i < mp.end; i++ {
		mp.buffer[i].Key = int32(mp.history.ReadTotal(mp.position, mp.buffer[i].Move))
	}
}

// isQuietKiller verifies a killer still fits this position and is not a capture.
func (mp *movePicker) isQuietKiller(move Move) bool {
	if move == MoveEmpty || move == mp.ttMove {
		return false
	}
	if !move.IsDrop() && mp.position.PieceOn(move.To()) != PieceNone {
		return false
	}
	return mp.position.IsPseudolegal(move)
}

func (mp *movePicker) next() Move {
	switch mp.stage {
	case stageTTMove:
		mp.stage = stageGenerateCaptures
		if mp.ttMove != MoveEmpty && mp.position.IsPseudolegal(mp.ttMove) {
			return mp.ttMove
		}
		return mp.next()

	case stageGenerateCaptures:
		mp.buffer = mp.position.GenerateCaptures(mp.buffer[:0])
		mp.index = 0
		mp.end = len(mp.buffer)
		mp.scoreCaptures()
		mp.stage = stageCaptures
		return mp.next()

	case stageCaptures:
		if move := mp.selectNext(func(m Move) bool { return m != mp.ttMove }); move != MoveEmpty {
			return move
		}
		mp.stage = stageKiller1
		return mp.next()

	case stageKiller1:
		mp.stage = stageKiller2
		if mp.isQuietKiller(mp.killer1) {
			return mp.killer1
		}
		return mp.next()

	case stageKiller2:
		mp.stage = stageGenerateNonCaptures
		if mp.killer2 != mp.killer1 && mp.isQuietKiller(mp.killer2) {
			return mp.killer2
		}
		return mp.next()

	case stageGenerateNonCaptures:
		if mp.skipQuiets {
			mp.stage = stageEnd
			return MoveEmpty
		}
		mp.buffer = mp.position.GenerateNonCaptures(mp.buffer[:0])
		mp.index = 0
		mp.end = len(mp.buffer)
		mp.scoreNonCaptures()
		mp.stage = stageNonCaptures
		return mp.next()

	case stageNonCaptures:
		if mp.skipQuiets {
			mp.stage = stageEnd
			return MoveEmpty
		}
		if move := mp.selectNext(func(m Move) bool { return !mp.isSpecial(m) }); move != MoveEmpty {
			return move
		}
		mp.stage = stageEnd
		return MoveEmpty

	case stageQSGenerateEvasions:
		mp.buffer = mp.position.GenerateAll(mp.buffer[:0])
		mp.index = 0
		mp.end = len(mp.buffer)
		mp.scoreCaptures()
		mp.stage = stageQSEvasions
		return mp.next()

	case stageQSEvasions:
		return mp.selectNext(func(Move) bool { return true })

	case stageQSGenerateCaptures:
		mp.buffer = mp.position.GenerateCaptures(mp.buffer[:0])
		mp.index = 0
		mp.end = len(mp.buffer)
		mp.scoreCaptures()
		mp.stage = stageQSCaptures
		return mp.next()

	case stageQSCaptures:
		return mp.selectNext(func(Move) bool { return true })

	case stageQSGenerateRecaptures:
		mp.buffer = mp.position.GenerateRecaptures(mp.buffer[:0], mp.captureSq)
		mp.index = 0
		mp.end = len(mp.buffer)
		mp.scoreCaptures()
		mp.stage = stageQSRecaptures
		return mp.next()

	case stageQSRecaptures:
		return mp.selectNext(func(Move) bool { return true })

	case stageEnd:
		return MoveEmpty
	}
	panic(fmt.Errorf("move picker in bad stage %v", mp.stage))
}
