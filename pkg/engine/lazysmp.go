package engine

import (
	"errors"
	"sync"

	"github.com/mzaitsev/tokin/pkg/shogi"
)

var errSearchTimeout = errors.New("search timeout")

type searchTask struct {
	depth         int
	startingMove  shogi.Move // root ordering hint
	startingScore int        // aspiration seed
}

// lazySmp hands identical root state to every worker; they share only the
// transposition table and the stop flag.
func lazySmp(e *Engine) {
	var ml = e.genRootMoves()
	e.mainLine = mainLine{}
	if len(ml) != 0 {
		e.mainLine = mainLine{
			depth: 0,
			score: 0,
			moves: []shogi.Move{ml[0]},
		}
	}
	if len(ml) == 0 {
		return
	}

	var tasks = make(chan searchTask)
	var taskResults = make(chan mainLine)

	var wg = &sync.WaitGroup{}
	for i := 0; i < len(e.threads); i++ {
		wg.Add(1)
		go func(t *thread) {
			defer wg.Done()
			searchDepths(t, tasks, taskResults)
		}(&e.threads[i])
	}

	go func() {
		wg.Wait()
		close(taskResults)
	}()

	iterativeDeepening(e, tasks, taskResults)
}

func iterativeDeepening(
	e *Engine,
	tasks chan<- searchTask,
	taskResults <-chan mainLine,
) {
	var searchCountByDepth [stackSize]int
	for {
		var task = searchTask{
			depth:         e.mainLine.depth + 1,
			startingMove:  e.mainLine.moves[0],
			startingScore: e.mainLine.score,
		}
		if task.depth < len(searchCountByDepth) &&
			searchCountByDepth[task.depth] >= (len(e.threads)+1)/2 {
			// enough workers already on this depth; send the rest deeper
			task.depth = e.mainLine.depth + 2
		}

		if task.depth > maxHeight ||
			e.stop.Load() ||
			e.limiter.StopSoft(e.nodes.Load()) {
			if tasks != nil {
				close(tasks)
				tasks = nil
				e.stop.Store(true)
			}
		}

		select {
		case taskResult, ok := <-taskResults:
			if !ok {
				return
			}
			e.completedNodes += taskResult.nodes
			if taskResult.depth > e.mainLine.depth {
				e.mainLine = taskResult
				e.limiter.Update(e.mainLine.depth, e.mainLine.moves[0])
				if e.progress != nil && e.completedNodes >= int64(e.Options.ProgressMinNodes) {
					e.progress(e.currentSearchResult())
				}
			}
		case tasks <- task:
			searchCountByDepth[task.depth]++
		}
	}
}

func searchDepths(
	t *thread,
	tasks <-chan searchTask,
	taskResults chan<- mainLine,
) {
	defer func() {
		if r := recover(); r != nil {
			if r == errSearchTimeout {
				return
			}
			panic(r)
		}
	}()

	for h := 0; h <= 2; h++ {
		t.stack[h].killer1 = shogi.MoveEmpty
		t.stack[h].killer2 = shogi.MoveEmpty
	}

	for task := range tasks {
		var score = aspirationWindow(t, task.depth, task.startingMove, task.startingScore)
		taskResults <- mainLine{
			depth: task.depth,
			score: score,
			moves: t.stack[0].pv.toSlice(),
			nodes: t.nodes,
		}
		t.nodes = 0
	}
}

func (e *Engine) genRootMoves() []shogi.Move {
	var p = &e.threads[0].stack[0].position
	return p.GenerateLegalMoves()
}
