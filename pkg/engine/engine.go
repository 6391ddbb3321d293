package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/mzaitsev/tokin/pkg/shogi"
)

type Engine struct {
	Options     Options
	evalBuilder func() interface{}
	transTable  *transTable
	limiter     Limiter
	threads     []thread
	progress    func(SearchInfo)
	mainLine    mainLine
	gameKeys    []uint64
	start       time.Time
	nodes       atomic.Int64
	stop        atomic.Bool

	// node total over completed tasks only, so that reports do not depend on
	// how far an aborted task got
	completedNodes int64
}

type thread struct {
	id         int
	engine     *Engine
	history    *historyService
	correction *correctionService
	evaluator  IUpdatableEvaluator
	nodes      int64
	seldepth   atomic.Int32
	rootDepth  int
	rootHint   Move
	keyHistory []uint64
	stack      [stackSize]struct {
		position       Position
		moveList       [MaxMoves]OrderedMove
		quietsSearched [MaxMoves]Move
		pv             pv
		staticEval     int
		killer1        Move
		killer2        Move
	}
}

type pv struct {
	items [stackSize]Move
	size  int
}

type mainLine struct {
	moves []Move
	score int
	depth int
	nodes int64
}

type IEvaluator interface {
	Evaluate(p *Position) int
}

type IUpdatableEvaluator interface {
	Init(p *Position)
	MakeMove(p *Position, m Move)
	UnmakeMove()
	EvaluateQuick(p *Position) int
}

func NewEngine(evalBuilder func() interface{}) *Engine {
	return &Engine{
		Options:     NewOptions(),
		evalBuilder: evalBuilder,
	}
}

// Prepare applies pending option changes: TT finalization and worker pool
// construction. All search-time buffers are allocated here, never mid-search.
func (e *Engine) Prepare() error {
	if e.transTable == nil {
		e.transTable = newTransTable(e.Options.Hash)
	} else {
		e.transTable.Resize(e.Options.Hash)
	}
	if _, err := e.transTable.Finalize(); err != nil {
		return err
	}
	if len(e.threads) != e.Options.Threads {
		e.threads = make([]thread, e.Options.Threads)
		for i := range e.threads {
			var t = &e.threads[i]
			t.id = i
			t.engine = e
			t.history = newHistoryService()
			t.correction = &correctionService{}
			t.evaluator = e.buildEvaluator()
			t.keyHistory = make([]uint64, 0, 1024)
		}
	}
	return nil
}

func (e *Engine) Clear() {
	if e.transTable != nil && e.transTable.Ready() {
		e.transTable.Clear()
	}
	for i := range e.threads {
		e.threads[i].history.Clear()
		e.threads[i].correction.Clear()
	}
}

func (e *Engine) Ready() bool {
	return e.transTable != nil && e.transTable.Ready()
}

// Search runs the worker pool until the limiter or ctx ends it and reports
// the best line found.
func (e *Engine) Search(ctx context.Context, params SearchParams) SearchInfo {
	e.start = time.Now()
	if err := e.Prepare(); err != nil {
		return SearchInfo{}
	}
	var root = &params.Positions[len(params.Positions)-1]
	e.limiter = NewLimiter(params.Limits, root.Stm, e.start)
	e.progress = params.Progress
	e.transTable.NextGeneration()

	e.gameKeys = e.gameKeys[:0]
	for i := 0; i < len(params.Positions)-1; i++ {
		e.gameKeys = append(e.gameKeys, params.Positions[i].Key)
	}

	e.nodes.Store(0)
	e.completedNodes = 0
	e.stop.Store(false)
	for i := range e.threads {
		var t = &e.threads[i]
		t.nodes = 0
		t.seldepth.Store(0)
		t.keyHistory = append(t.keyHistory[:0], e.gameKeys...)
		t.stack[0].position = *root
	}

	var searchDone = make(chan struct{})
	defer close(searchDone)
	go func() {
		select {
		case <-ctx.Done():
			e.stop.Store(true)
		case <-searchDone:
		}
	}()

	lazySmp(e)
	e.limiter = nil
	return e.currentSearchResult()
}

func (e *Engine) maxSeldepth() int {
	var result = 0
	for i := range e.threads {
		result = Max(result, int(e.threads[i].seldepth.Load()))
	}
	return result
}

func (e *Engine) currentSearchResult() SearchInfo {
	return SearchInfo{
		Depth:    e.mainLine.depth,
		Seldepth: e.maxSeldepth(),
		MainLine: e.mainLine.moves,
		Score:    newUsiScore(e.mainLine.score),
		Nodes:    e.completedNodes,
		Time:     time.Since(e.start),
		Hashfull: e.transTable.Hashfull(),
	}
}

func (pv *pv) clear() {
	pv.size = 0
}

func (pv *pv) assign(m Move, child *pv) {
	pv.size = 1
	pv.items[0] = m
	if child.size > 0 {
		pv.size += child.size
		copy(pv.items[1:], child.items[:child.size])
	}
}

func (pv *pv) toSlice() []Move {
	var result = make([]Move, pv.size)
	copy(result, pv.items[:pv.size])
	return result
}

type EvaluatorAdapter struct {
	evaluator IEvaluator
}

func (e *EvaluatorAdapter) Init(p *Position) {}

func (e *EvaluatorAdapter) MakeMove(p *Position, m Move) {}

func (e *EvaluatorAdapter) UnmakeMove() {}

func (e *EvaluatorAdapter) EvaluateQuick(p *Position) int {
	return e.evaluator.Evaluate(p)
}

func (e *Engine) buildEvaluator() IUpdatableEvaluator {
	var service = e.evalBuilder()
	if ue, ok := service.(IUpdatableEvaluator); ok {
		return ue
	}
	if ev, ok := service.(IEvaluator); ok {
		return &EvaluatorAdapter{evaluator: ev}
	}
	panic(errors.New("bad eval builder"))
}
