package engine

import (
	"testing"

	. "github.com/mzaitsev/tokin/pkg/shogi"
)

func pickAll(mp *movePicker) []Move {
	var result []Move
	for {
		var move = mp.next()
		if move == MoveEmpty {
			return result
		}
		result = append(result, move)
	}
}

func TestMovePickerYieldsEachMoveOnce(t *testing.T) {
	var fixtures = []string{
		InitialPositionSfen,
		"k8/9/1G7/9/9/9/9/9/8K b G 1",
		"lnsgkgsnl/1r5b1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL b - 4",
	}
	var th = &thread{history: newHistoryService(), correction: &correctionService{}}
	var buffer [MaxMoves]OrderedMove
	for _, sfen := range fixtures {
		var p, err = NewPositionFromSfen(sfen)
		if err != nil {
			t.Fatal(err)
		}
		var all = p.GenerateAll(buffer[:0])
		var want = map[Move]bool{}
		for i := range all {
			want[all[i].Move] = true
		}
		var ttMove = all[len(all)/2].Move
		var ctx = historyContext{history: th.history, cont1: -1, cont2: -1}

		var stackBuffer [MaxMoves]OrderedMove
		var mp movePicker
		mp.initMain(&p, stackBuffer[:], ctx, ttMove, MoveEmpty, MoveEmpty)

		var got = pickAll(&mp)
		if got[0] != ttMove {
			t.Error(sfen, "tt move not first:", got[0], ttMove)
		}
		var seen = map[Move]bool{}
		for _, move := range got {
			if seen[move] {
				t.Error(sfen, "duplicate yield", move)
			}
			seen[move] = true
			if !want[move] {
				t.Error(sfen, "yielded move not generated", move)
			}
		}
		if len(got) != len(want) {
			t.Error(sfen, "yield count", len(got), "want", len(want))
		}
	}
}

func TestMovePickerCapturesBeforeQuiets(t *testing.T) {
	// Black rook can take the pawn on 5e or play many quiets.
	var p, err = NewPositionFromSfen("k8/9/9/9/4p4/9/9/9/4R3K b - 1")
	if err != nil {
		t.Fatal(err)
	}
	var th = &thread{history: newHistoryService()}
	var ctx = historyContext{history: th.history, cont1: -1, cont2: -1}
	var buffer [MaxMoves]OrderedMove
	var mp movePicker
	mp.initMain(&p, buffer[:], ctx, MoveEmpty, MoveEmpty, MoveEmpty)

	var first = mp.next()
	if first.String() != "5i5e" {
		t.Fatal("capture not yielded first:", first)
	}
}

func TestMovePickerSkipQuiets(t *testing.T) {
	var p, err = NewPositionFromSfen(InitialPositionSfen)
	if err != nil {
		t.Fatal(err)
	}
	var th = &thread{history: newHistoryService()}
	var ctx = historyContext{history: th.history, cont1: -1, cont2: -1}
	var buffer [MaxMoves]OrderedMove
	var mp movePicker
	mp.initMain(&p, buffer[:], ctx, MoveEmpty, MoveEmpty, MoveEmpty)
	mp.skipQuiets = true
	// startpos has no captures, so the picker must end immediately
	if move := mp.next(); move != MoveEmpty {
		t.Fatal("quiet yielded despite short-circuit:", move)
	}
}

func TestQSPickerCapturesOnly(t *testing.T) {
	var p, err = NewPositionFromSfen("k8/9/9/9/4p4/9/9/9/4R3K b - 1")
	if err != nil {
		t.Fatal(err)
	}
	var buffer [MaxMoves]OrderedMove
	var mp movePicker
	mp.initQS(&p, buffer[:], SquareNone)
	var got = pickAll(&mp)
	if len(got) != 1 || got[0].String() != "5i5e" {
		t.Fatal("qsearch picker yielded", got)
	}
}
