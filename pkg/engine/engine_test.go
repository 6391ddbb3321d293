package engine

import (
	"context"
	"testing"
	"time"

	material "github.com/mzaitsev/tokin/pkg/eval/material"
	. "github.com/mzaitsev/tokin/pkg/shogi"
)

func newTestEngine(threads int) *Engine {
	var e = NewEngine(func() interface{} {
		return material.NewEvaluationService()
	})
	e.Options.Hash = 8
	e.Options.Threads = threads
	e.Options.ProgressMinNodes = 1 << 62
	return e
}

func searchPosition(t *testing.T, e *Engine, sfen string, limits LimitsType) SearchInfo {
	t.Helper()
	var p, err = NewPositionFromSfen(sfen)
	if err != nil {
		t.Fatal(err)
	}
	return e.Search(context.Background(), SearchParams{
		Positions: []Position{p},
		Limits:    limits,
	})
}

func TestSearchMateIn1(t *testing.T) {
	const sfen = "k8/9/1G7/9/9/9/9/9/8K b G 1"
	var e = newTestEngine(1)
	var si = searchPosition(t, e, sfen, LimitsType{Depth: 5})
	if si.Score.Mate != 1 {
		t.Fatal("expected mate 1, got", si.Score)
	}
	// G*8b and G*9b both mate here; the best move must be one that mates.
	var p, _ = NewPositionFromSfen(sfen)
	var child Position
	if len(si.MainLine) == 0 || !p.MakeMove(si.MainLine[0], &child) ||
		!child.IsCheck() || len(child.GenerateLegalMoves()) != 0 {
		t.Fatal("expected a mating move, got", si.MainLine)
	}
}

func TestSearchAvoidsBareRepetitionScore(t *testing.T) {
	var e = newTestEngine(1)
	var si = searchPosition(t, e, "k8/9/9/9/9/9/9/9/8K b - 1", LimitsType{Depth: 10})
	if si.Score.Mate != 0 {
		t.Fatal("bare kings cannot be mate, got", si.Score)
	}
	if si.Score.Centipawns < -100 || si.Score.Centipawns > 100 {
		t.Fatal("bare kings should be near zero, got", si.Score)
	}
}

func TestSearchSingleThreadDeterministic(t *testing.T) {
	var limits = LimitsType{Nodes: 100_000}
	var first = searchPosition(t, newTestEngine(1), InitialPositionSfen, limits)
	var second = searchPosition(t, newTestEngine(1), InitialPositionSfen, limits)
	if first.Nodes != second.Nodes {
		t.Fatal("node counts differ:", first.Nodes, second.Nodes)
	}
	if len(first.MainLine) == 0 || first.MainLine[0] != second.MainLine[0] {
		t.Fatal("best moves differ:", first.MainLine, second.MainLine)
	}
	if first.Depth != second.Depth || first.Score != second.Score {
		t.Fatal("results differ:", first, second)
	}
}

func TestSearchMultiThreadSmoke(t *testing.T) {
	var e = newTestEngine(4)
	var si = searchPosition(t, e, InitialPositionSfen, LimitsType{MoveTime: 300})
	if len(si.MainLine) == 0 {
		t.Fatal("no move returned")
	}
	var p, _ = NewPositionFromSfen(InitialPositionSfen)
	if !p.IsLegal(si.MainLine[0]) {
		t.Fatal("illegal best move", si.MainLine[0])
	}
}

func TestStopResponsiveness(t *testing.T) {
	var e = newTestEngine(1)
	var p, err = NewPositionFromSfen(InitialPositionSfen)
	if err != nil {
		t.Fatal(err)
	}
	var ctx, cancel = context.WithCancel(context.Background())
	var done = make(chan SearchInfo, 1)
	go func() {
		done <- e.Search(ctx, SearchParams{
			Positions: []Position{p},
			Limits:    LimitsType{Infinite: true},
		})
	}()
	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case si := <-done:
		if len(si.MainLine) == 0 {
			t.Fatal("no move after stop")
		}
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestQsearchHeightClamp(t *testing.T) {
	var e = newTestEngine(1)
	if err := e.Prepare(); err != nil {
		t.Fatal(err)
	}
	var p, err = NewPositionFromSfen(InitialPositionSfen)
	if err != nil {
		t.Fatal(err)
	}
	var th = &e.threads[0]
	th.stack[maxHeight].position = p
	th.evaluator.Init(&p)
	var score = th.quiescence(-valueInfinity, valueInfinity, maxHeight, 0)
	if score <= valueLoss || score >= valueWin {
		t.Fatal("height-capped qsearch must return a clamped evaluation:", score)
	}
}

func TestSearchFindsCapture(t *testing.T) {
	// A rook hangs next to the black rook; depth 3 must take it.
	var e = newTestEngine(1)
	var si = searchPosition(t, e, "k8/9/9/9/4r4/4R4/9/9/8K b - 1", LimitsType{Depth: 3})
	if len(si.MainLine) == 0 || si.MainLine[0].String() != "5f5e" {
		t.Fatal("expected 5f5e, got", si.MainLine)
	}
}
