package engine

import (
	"testing"

	. "github.com/mzaitsev/tokin/pkg/shogi"
)

func newTestTT(t *testing.T) *transTable {
	t.Helper()
	var tt = newTransTable(1)
	if _, err := tt.Finalize(); err != nil {
		t.Fatal(err)
	}
	return tt
}

func TestTransTableRoundTrip(t *testing.T) {
	var tt = newTestTT(t)
	var move, _ = ParseMove("7g7f")

	tt.Update(0x1234567890abcdef, 7, 42, boundExact, move, 0)
	var depth, score, bound, gotMove, found = tt.Read(0x1234567890abcdef, 0)
	if !found {
		t.Fatal("entry not found")
	}
	if depth != 7 || score != 42 || bound != boundExact || gotMove != move {
		t.Fatal("round trip mismatch", depth, score, bound, gotMove)
	}

	if _, _, _, _, found := tt.Read(0xfedcba0987654321, 0); found {
		t.Fatal("hit on missing key")
	}
}

func TestTransTableMateAdjustment(t *testing.T) {
	var tt = newTestTT(t)
	var key = uint64(0x42)

	// a mate found 5 plies into the search, stored from height 3
	tt.Update(key, 12, valueMate-5, boundExact, MoveEmpty, 3)
	var _, score, _, _, found = tt.Read(key, 3)
	if !found || score != valueMate-5 {
		t.Fatal("same-height probe", score)
	}
	_, score, _, _, _ = tt.Read(key, 1)
	if score != valueMate-3 {
		t.Fatal("rebased probe", score)
	}
}

func TestTransTableKeepsDeeperEntry(t *testing.T) {
	var tt = newTestTT(t)
	var key = uint64(0x99)
	var deep, _ = ParseMove("2g2f")
	var shallow, _ = ParseMove("7g7f")

	tt.Update(key, 20, 100, boundLower, deep, 0)
	tt.Update(key, 2, -50, boundLower, shallow, 0)
	var depth, score, _, move, found = tt.Read(key, 0)
	if !found || depth != 20 || score != 100 || move != deep {
		t.Fatal("deep same-generation entry was displaced", depth, score, move)
	}

	// after a generation change the shallow store wins
	tt.NextGeneration()
	tt.Update(key, 2, -50, boundLower, shallow, 0)
	depth, score, _, move, found = tt.Read(key, 0)
	if !found || depth != 2 || score != -50 || move != shallow {
		t.Fatal("old-generation entry survived", depth, score, move)
	}
}

func TestTransTableResizeRequiresFinalize(t *testing.T) {
	var tt = newTestTT(t)
	tt.Update(7, 3, 1, boundLower, MoveEmpty, 0)
	tt.Resize(2)
	if tt.Ready() {
		t.Fatal("table ready before finalize")
	}
	var done, err = tt.Finalize()
	if err != nil || !done {
		t.Fatal("finalize", done, err)
	}
	if done, _ := tt.Finalize(); done {
		t.Fatal("second finalize did work")
	}
	if tt.Hashfull() != 0 {
		t.Fatal("resized table not cleared")
	}
}
