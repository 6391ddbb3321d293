package engine

import (
	"testing"

	. "github.com/mzaitsev/tokin/pkg/shogi"
)

func TestSeeGE(t *testing.T) {
	var tests = []struct {
		sfen      string
		move      string
		threshold int
		want      bool
	}{
		// free pawn grab
		{"k8/9/9/9/4p4/9/9/9/4R3K b - 1", "5i5e", 0, true},
		{"k8/9/9/9/4p4/9/9/9/4R3K b - 1", "5i5e", 100, true},
		{"k8/9/9/9/4p4/9/9/9/4R3K b - 1", "5i5e", 101, false},
		// rook takes a gold-defended pawn: 100 - 1300
		{"k8/9/9/4g4/4p4/9/9/9/4R3K b - 1", "5i5e", 0, false},
		{"k8/9/9/4g4/4p4/9/9/9/4R3K b - 1", "5i5e", -1200, true},
		{"k8/9/9/4g4/4p4/9/9/9/4R3K b - 1", "5i5e", -1199, false},
		// pawn pushed into a defended square is simply lost
		{"k8/9/9/4p4/9/4P4/9/9/8K b - 1", "5f5e", 0, false},
		// quiet rook move into a defended square
		{"k8/9/9/4g4/9/9/9/9/4R3K b - 1", "5i5e", 0, false},
		// drop into an undefended square costs nothing
		{"k8/9/9/9/9/9/9/9/7GK b G 1", "G*5e", 0, true},
	}
	for i, test := range tests {
		var p, err = NewPositionFromSfen(test.sfen)
		if err != nil {
			t.Fatal(i, err)
		}
		var move, ok = ParseMove(test.move)
		if !ok {
			t.Fatal(i, "bad move", test.move)
		}
		if got := SeeGE(&p, move, test.threshold); got != test.want {
			t.Error(i, test.sfen, test.move, test.threshold, "got", got)
		}
	}
}

func TestHistoryGravityStaysBounded(t *testing.T) {
	var v int16
	for i := 0; i < 10_000; i++ {
		updateHistory(&v, historyMaxBonus)
		if int(v) > historyMax || int(v) < -historyMax {
			t.Fatal("history escaped bounds:", v)
		}
	}
	if v < historyMax/2 {
		t.Fatal("history did not accumulate:", v)
	}
	for i := 0; i < 10_000; i++ {
		updateHistory(&v, -historyMaxBonus)
	}
	if v > -historyMax/2 {
		t.Fatal("history did not decay:", v)
	}
}

func TestCorrectionBlendStaysBounded(t *testing.T) {
	var p, err = NewPositionFromSfen(InitialPositionSfen)
	if err != nil {
		t.Fatal(err)
	}
	var c = &correctionService{}
	for i := 0; i < 1000; i++ {
		c.Update(&p, 20, 500, 100)
	}
	var corrected = c.Correct(&p, 100)
	if corrected < 100 || corrected > 500 {
		t.Fatal("correction out of range:", corrected)
	}
	c.Clear()
	if c.Correct(&p, 100) != 100 {
		t.Fatal("clear did not reset correction")
	}
}

func TestCorrectionClampsIntoWinWindow(t *testing.T) {
	var p, err = NewPositionFromSfen(InitialPositionSfen)
	if err != nil {
		t.Fatal(err)
	}
	var c = &correctionService{}
	if got := c.Correct(&p, valueMate); got != valueWin-1 {
		t.Fatal("upper clamp", got)
	}
	if got := c.Correct(&p, -valueMate); got != -valueWin+1 {
		t.Fatal("lower clamp", got)
	}
}
