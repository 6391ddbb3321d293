package shogi

import (
	"math/rand"
	"testing"
)

func mustParse(t *testing.T, sfen string) Position {
	t.Helper()
	var p, err = NewPositionFromSfen(sfen)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// Plays random legal moves and checks that incremental state matches a full
// recompute at every step.
func TestKeysAfterRandomPlayout(t *testing.T) {
	var r = rand.New(rand.NewSource(1))
	for game := 0; game < 20; game++ {
		var p = mustParse(t, InitialPositionSfen)
		for ply := 0; ply < 120; ply++ {
			var ml = p.GenerateLegalMoves()
			if len(ml) == 0 {
				break
			}
			var move = ml[r.Intn(len(ml))]
			if p.KeyAfter(move) != mustChild(t, &p, move).Key {
				t.Fatal("KeyAfter mismatch", p.Sfen(), move)
			}
			p = mustChild(t, &p, move)
			if p.Key != p.computeKey() {
				t.Fatal("key mismatch after", move, p.Sfen())
			}
			if p.PawnKey != p.computePawnKey() {
				t.Fatal("pawn key mismatch after", move, p.Sfen())
			}
			if p.KingHandKey != p.computeKingHandKey() {
				t.Fatal("king-hand key mismatch after", move, p.Sfen())
			}
			checkConservation(t, &p)
			var p2 = mustParse(t, p.Sfen())
			if p2.Key != p.Key {
				t.Fatal("sfen round trip changed key", p.Sfen())
			}
		}
	}
}

func mustChild(t *testing.T, p *Position, move Move) Position {
	t.Helper()
	var child Position
	if !p.MakeMove(move, &child) {
		t.Fatal("legal move rejected", move)
	}
	return child
}

func checkConservation(t *testing.T, p *Position) {
	t.Helper()
	var totals = map[PieceType]int{}
	for sq := 0; sq < SquareCount; sq++ {
		if piece := p.PieceOn(sq); piece != PieceNone {
			totals[piece.Type().Unpromote()]++
		}
	}
	for c := Black; c <= White; c++ {
		for slot := 0; slot < HandCount; slot++ {
			totals[handPieceTypes[slot]] += int(p.Hands[c][slot])
		}
	}
	var want = map[PieceType]int{
		Pawn: 18, Lance: 4, Knight: 4, Silver: 4, Gold: 4, Bishop: 2, Rook: 2, King: 2,
	}
	for pt, n := range want {
		if totals[pt] != n {
			t.Fatal("piece conservation broken", pt, totals[pt], p.Sfen())
		}
	}
}

func TestPseudolegalAgreesWithGeneration(t *testing.T) {
	var fixtures = []string{
		InitialPositionSfen,
		"k8/9/1G7/9/9/9/9/9/8K b G 1",
		"lnsgkgsnl/1r5b1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 4",
		"k8/9/9/9/9/9/9/9/8K b 18P 1",
	}
	var buffer [MaxMoves]OrderedMove
	for _, sfen := range fixtures {
		var p = mustParse(t, sfen)
		var ml = p.GenerateAll(buffer[:0])
		var seen = map[Move]bool{}
		for i := range ml {
			var move = ml[i].Move
			if seen[move] {
				t.Error("duplicate generated move", sfen, move)
			}
			seen[move] = true
			if !p.IsPseudolegal(move) {
				t.Error("generated move not pseudo-legal", sfen, move)
			}
		}
		// IsLegal must equal pseudo-legal plus king safety.
		var child Position
		for i := range ml {
			var move = ml[i].Move
			var safe = p.MakeMove(move, &child)
			if p.IsLegal(move) != safe {
				t.Error("IsLegal disagrees with MakeMove", sfen, move)
			}
		}
	}
}

func TestSennichiteDraw(t *testing.T) {
	var p = mustParse(t, "k8/9/9/9/9/9/9/9/8K b - 1")
	var history []uint64
	var cycle = []string{"1i1h", "9a9b", "1h1i", "9b9a"}
	for rep := 0; rep < 3; rep++ {
		for _, s := range cycle {
			history = append(history, p.Key)
			var next, ok = p.MakeMoveUSI(s)
			if !ok {
				t.Fatal("bad cycle move", s)
			}
			p = next
		}
		var want = SennichiteNone
		if rep == 2 {
			want = SennichiteDraw
		}
		if got := p.TestSennichite(history, SennichiteLimit); got != want {
			t.Fatal("rep", rep, "got", got, "want", want)
		}
	}
}

func TestSennichitePerpetualCheckLoses(t *testing.T) {
	// Black rook checks on every black move; the fourth occurrence of the
	// start position must score as a win for the checked side.
	var p = mustParse(t, "k8/9/9/9/9/9/R8/9/8K w - 1")
	if !p.IsCheck() {
		t.Fatal("expected starting check")
	}
	var history []uint64
	var cycle = []string{"9a8a", "9g8g", "8a9a", "8g9g"}
	for rep := 0; rep < 3; rep++ {
		for _, s := range cycle {
			history = append(history, p.Key)
			var next, ok = p.MakeMoveUSI(s)
			if !ok {
				t.Fatal("bad cycle move", s)
			}
			p = next
		}
	}
	if got := p.TestSennichite(history, SennichiteLimit); got != SennichiteWin {
		t.Fatal("got", got)
	}
}

func TestEnteringKingsWin(t *testing.T) {
	var win = mustParse(t, "KRB6/+P+P+P+P+P+P+P+P+P/+P+P+P+P+P+P+P+P+P/9/9/9/9/9/8k b - 1")
	if !win.IsEnteringKingsWin() {
		t.Error("expected declaration win")
	}
	var home = mustParse(t, InitialPositionSfen)
	if home.IsEnteringKingsWin() {
		t.Error("startpos is not a declaration win")
	}
}

func TestPawnDropRules(t *testing.T) {
	// Nifu: black already has a pawn on file 5.
	var p = mustParse(t, "k8/9/9/9/4P4/9/9/9/8K b P 1")
	if p.IsPseudolegal(MakeDropMove(Pawn, ParseSquare("5f"))) {
		t.Error("nifu drop must be rejected")
	}
	if !p.IsPseudolegal(MakeDropMove(Pawn, ParseSquare("4f"))) {
		t.Error("clean file drop must be accepted")
	}
	if p.IsPseudolegal(MakeDropMove(Pawn, ParseSquare("4a"))) {
		t.Error("last-rank pawn drop must be rejected")
	}

	// Uchifuzume: the dropped pawn (guarded by the knight) mates a walled-in
	// king; the drop is illegal even though it is otherwise well-formed.
	var mate = mustParse(t, "kl7/1s7/9/1N7/9/9/9/9/8K b P 1")
	if mate.IsPseudolegal(MakeDropMove(Pawn, ParseSquare("9b"))) {
		t.Error("pawn drop mate must be rejected")
	}
	// The same drop without the knight guard is an escapable check and legal.
	var noMate = mustParse(t, "kl7/1s7/9/9/9/9/9/9/8K b P 1")
	if !noMate.IsPseudolegal(MakeDropMove(Pawn, ParseSquare("9b"))) {
		t.Error("escapable pawn drop check must be accepted")
	}
}

func TestMoveStringRoundTrip(t *testing.T) {
	var tests = []string{"7g7f", "8h2b+", "P*5e", "1a1b", "G*5b"}
	for _, s := range tests {
		var move, ok = ParseMove(s)
		if !ok {
			t.Fatal("parse", s)
		}
		if move.String() != s {
			t.Error(s, "->", move.String())
		}
	}
	if _, ok := ParseMove("K*5e"); ok {
		t.Error("king drop parsed")
	}
	if _, ok := ParseMove("0a1b"); ok {
		t.Error("bad square parsed")
	}
}
