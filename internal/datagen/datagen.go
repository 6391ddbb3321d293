package datagen

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mzaitsev/tokin/pkg/engine"
	"github.com/mzaitsev/tokin/pkg/shogi"
)

type Settings struct {
	Games       int
	Threads     int
	ResultPath  string
	SearchNodes int64
	Seed        int64
}

type sample struct {
	sfen  string
	score int
}

type gameRecord struct {
	samples []sample
	result  float64 // 1 black wins, 0.5 draw, 0 white wins
}

const (
	openingPlies = 8
	maxGamePlies = 400
	mateScore    = 25_000
)

// Run plays self-play games on a worker pool and streams quiet positions with
// their search scores into the dataset file.
func Run(
	ctx context.Context,
	logger *log.Logger,
	settings Settings,
	evalBuilder func() interface{},
) error {
	logger.Println("datagen started")
	defer logger.Println("datagen finished")

	if settings.Threads < 1 {
		settings.Threads = 1
	}

	var g, gctx = errgroup.WithContext(ctx)
	var records = make(chan gameRecord, 128)

	g.Go(func() error {
		return saveRecords(gctx, records, settings.ResultPath)
	})

	var wg = &sync.WaitGroup{}
	var gamesPerWorker = (settings.Games + settings.Threads - 1) / settings.Threads
	for i := 0; i < settings.Threads; i++ {
		wg.Add(1)
		var workerIndex = i
		g.Go(func() error {
			defer wg.Done()
			return playGames(gctx, workerIndex, gamesPerWorker, settings, evalBuilder, records)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(records)
		return nil
	})

	return g.Wait()
}

func playGames(
	ctx context.Context,
	workerIndex, games int,
	settings Settings,
	evalBuilder func() interface{},
	records chan<- gameRecord,
) error {
	var eng = engine.NewEngine(evalBuilder)
	eng.Options.Hash = 16
	eng.Options.Threads = 1
	if err := eng.Prepare(); err != nil {
		return err
	}
	var rnd = rand.New(rand.NewSource(settings.Seed + int64(workerIndex)))

	for i := 0; i < games; i++ {
		var record, ok = playGame(ctx, eng, rnd, settings.SearchNodes)
		if !ok {
			continue
		}
		select {
		case records <- record:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// playGame returns false when the random opening reached a dead end.
func playGame(ctx context.Context, eng *engine.Engine, rnd *rand.Rand, searchNodes int64) (gameRecord, bool) {
	var p, err = shogi.NewPositionFromSfen(shogi.InitialPositionSfen)
	if err != nil {
		return gameRecord{}, false
	}
	var positions = []shogi.Position{p}

	var plies = openingPlies + rnd.Intn(4)
	for i := 0; i < plies; i++ {
		var ml = positions[len(positions)-1].GenerateLegalMoves()
		if len(ml) == 0 {
			return gameRecord{}, false
		}
		var child shogi.Position
		if !positions[len(positions)-1].MakeMove(ml[rnd.Intn(len(ml))], &child) {
			return gameRecord{}, false
		}
		positions = append(positions, child)
	}

	eng.Clear()

	var record gameRecord
	for len(positions) < maxGamePlies {
		if ctx.Err() != nil {
			return gameRecord{}, false
		}
		var current = &positions[len(positions)-1]

		if current.IsEnteringKingsWin() {
			record.result = let[float64](current.Stm == shogi.Black, 1, 0)
			return record, true
		}

		var keyHistory = make([]uint64, 0, len(positions)-1)
		for i := 0; i < len(positions)-1; i++ {
			keyHistory = append(keyHistory, positions[i].Key)
		}
		switch current.TestSennichite(keyHistory, shogi.SennichiteLimit) {
		case shogi.SennichiteDraw:
			record.result = 0.5
			return record, true
		case shogi.SennichiteWin:
			record.result = let[float64](current.Stm == shogi.Black, 1, 0)
			return record, true
		}

		var si = eng.Search(ctx, shogi.SearchParams{
			Positions: positions,
			Limits:    shogi.LimitsType{SoftNodes: searchNodes, Nodes: searchNodes * 8},
		})
		if len(si.MainLine) == 0 {
			// mated or stalemated: loss for the side to move
			record.result = let[float64](current.Stm == shogi.White, 1, 0)
			return record, true
		}

		var score = si.Score.Centipawns
		if si.Score.Mate != 0 {
			score = let(si.Score.Mate > 0, mateScore, -mateScore)
		}
		if current.Stm == shogi.White {
			score = -score
		}

		var move = si.MainLine[0]
		var quiet = move.IsDrop() || current.PieceOn(move.To()) == shogi.PieceNone
		if quiet && !current.IsCheck() && si.Score.Mate == 0 {
			record.samples = append(record.samples, sample{
				sfen:  current.Sfen(),
				score: score,
			})
		}

		var child shogi.Position
		if !current.MakeMove(move, &child) {
			return gameRecord{}, false
		}
		positions = append(positions, child)
	}

	record.result = 0.5
	return record, true
}

func saveRecords(ctx context.Context, records <-chan gameRecord, path string) error {
	var f, err = os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var w = bufio.NewWriter(f)
	defer w.Flush()

	for {
		select {
		case record, ok := <-records:
			if !ok {
				return nil
			}
			for _, s := range record.samples {
				if _, err := fmt.Fprintf(w, "%v | %v | %.1f\n", s.sfen, s.score, record.result); err != nil {
					return err
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func let[T any](ok bool, yes, no T) T {
	if ok {
		return yes
	}
	return no
}
