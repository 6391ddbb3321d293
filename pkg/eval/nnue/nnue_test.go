package eval

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	. "github.com/mzaitsev/tokin/pkg/shogi"
)

func testWeights() *Weights {
	var r = rand.New(rand.NewSource(3))
	var w = &Weights{}
	for i := range w.FtWeights {
		for j := range w.FtWeights[i] {
			w.FtWeights[i][j] = int16(r.Intn(17) - 8)
		}
	}
	for j := range w.FtBiases {
		w.FtBiases[j] = int16(r.Intn(17) - 8)
	}
	for i := range w.L1Weights {
		for j := range w.L1Weights[i] {
			w.L1Weights[i][j] = int8(r.Intn(17) - 8)
		}
	}
	for j := range w.L1Biases {
		w.L1Biases[j] = int32(r.Intn(33) - 16)
	}
	for i := range w.L2Weights {
		for j := range w.L2Weights[i] {
			w.L2Weights[i][j] = int32(r.Intn(9) - 4)
		}
	}
	for j := range w.L2Biases {
		w.L2Biases[j] = int32(r.Intn(33) - 16)
	}
	for j := range w.L3Weights {
		w.L3Weights[j] = int32(r.Intn(9) - 4)
	}
	w.L3Bias = 7
	return w
}

func TestIncrementalMatchesRefresh(t *testing.T) {
	var e = NewEvaluationService(testWeights())
	var fresh = NewEvaluationService(e.Weights)
	var r = rand.New(rand.NewSource(5))

	var p, err = NewPositionFromSfen(InitialPositionSfen)
	if err != nil {
		t.Fatal(err)
	}
	e.Init(&p)
	for ply := 0; ply < 80; ply++ {
		var ml = p.GenerateLegalMoves()
		if len(ml) == 0 {
			break
		}
		var move = ml[r.Intn(len(ml))]
		e.MakeMove(&p, move)
		var child Position
		p.MakeMove(move, &child)
		p = child

		fresh.Init(&p)
		if e.stack[e.current] != fresh.stack[0] {
			t.Fatal("incremental accumulator diverged at ply", ply, p.Sfen())
		}
		if e.EvaluateQuick(&p) != fresh.EvaluateQuick(&p) {
			t.Fatal("eval diverged at ply", ply)
		}
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	var e = NewEvaluationService(testWeights())
	var p, err = NewPositionFromSfen(InitialPositionSfen)
	if err != nil {
		t.Fatal(err)
	}
	e.Init(&p)
	var before = e.stack[e.current]
	var beforeEval = e.EvaluateQuick(&p)
	for _, move := range p.GenerateLegalMoves() {
		e.MakeMove(&p, move)
		e.UnmakeMove()
		if e.stack[e.current] != before {
			t.Fatal("push/pop not bit-identical after", move)
		}
	}
	if e.EvaluateQuick(&p) != beforeEval {
		t.Fatal("eval changed by push/pop")
	}
}

// The score is relative to the side to move, so exchanging the players must
// leave it unchanged.
func TestSideToMoveSymmetry(t *testing.T) {
	var e = NewEvaluationService(testWeights())
	var fixtures = []string{
		InitialPositionSfen,
		"k8/9/1G7/9/9/9/9/9/8K b G 1",
		"lnsgkgsnl/1r5b1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL b - 4",
	}
	for _, sfen := range fixtures {
		var p, err = NewPositionFromSfen(sfen)
		if err != nil {
			t.Fatal(err)
		}
		var mirrored = MirrorPosition(&p)
		if e.Evaluate(&p) != e.Evaluate(&mirrored) {
			t.Error("mirror asymmetry for", sfen)
		}
	}
}

func TestLoadWeightsRejectsBadSizes(t *testing.T) {
	if _, err := LoadWeights(bytes.NewReader(make([]byte, 128))); err == nil {
		t.Error("short blob accepted")
	}
	if _, err := LoadWeights(bytes.NewReader(make([]byte, WeightsFileSize+1))); err == nil {
		t.Error("oversized blob accepted")
	}
}

func TestLoadWeightsRoundTrip(t *testing.T) {
	var w = testWeights()
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, w); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != WeightsFileSize {
		t.Fatal("serialized size", buf.Len(), "want", WeightsFileSize)
	}
	var loaded, err = LoadWeights(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *w {
		t.Fatal("weights round trip mismatch")
	}
}
