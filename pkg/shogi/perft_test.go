package shogi

import (
	"testing"
)

func TestPerft(t *testing.T) {
	var tests = []struct {
		sfen  string
		depth int
		nodes int
	}{
		{InitialPositionSfen, 1, 30},
		{InitialPositionSfen, 2, 900},
		{InitialPositionSfen, 3, 25470},
		{InitialPositionSfen, 4, 719731},
	}
	for i, test := range tests {
		var p, err = NewPositionFromSfen(test.sfen)
		if err != nil {
			t.Fatal(i, err)
		}
		var nodes = Perft(&p, test.depth)
		if nodes != test.nodes {
			t.Error(i, test, nodes)
		}
	}
}

func TestPerftDeep(t *testing.T) {
	if testing.Short() {
		t.Skip("skip deep perft in short mode")
	}
	var p, err = NewPositionFromSfen(InitialPositionSfen)
	if err != nil {
		t.Fatal(err)
	}
	var nodes = Perft(&p, 5)
	if nodes != 19861490 {
		t.Error("perft(5)", nodes)
	}
}

func TestMaxPawnHandGeneration(t *testing.T) {
	var p, err = NewPositionFromSfen("k8/9/9/9/9/9/9/9/8K b 18P 1")
	if err != nil {
		t.Fatal(err)
	}
	var ml = p.GenerateLegalMoves()
	// 3 king moves plus pawn drops on every empty square outside rank a
	// (the drop before the bare white king is not mate, so it stays legal).
	if len(ml) != 74 {
		t.Error("legal moves", len(ml))
	}
}
