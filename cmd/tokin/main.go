package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/mzaitsev/tokin/internal/evalbuilder"
	"github.com/mzaitsev/tokin/pkg/engine"
	"github.com/mzaitsev/tokin/pkg/shogi"
	"github.com/mzaitsev/tokin/pkg/usi"
)

/*
Tokin Copyright (C) 2024-2026 Mikhail Zaitsev
This program is free software: you can redistribute it and/or modify it under the terms of the GNU General Public License as published by the Free Software Foundation, either version 3 of the License, or (at your option) any later version.
This program is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License for more details.
You should have received a copy of the GNU General Public License along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

const (
	name   = "Tokin"
	author = "Mikhail Zaitsev"
)

var (
	versionName = "dev"
	buildDate   = "(null)"
	gitRevision = "(null)"
	flgEval     string
	flgEvalFile string
)

func main() {
	flag.StringVar(&flgEval, "eval", "", "specifies evaluation function")
	flag.StringVar(&flgEvalFile, "evalfile", "", "path to nnue weights")
	flag.Parse()

	var logger = log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)

	logger.Println(name,
		"VersionName", versionName,
		"BuildDate", buildDate,
		"GitRevision", gitRevision,
		"RuntimeVersion", runtime.Version(),
		"NumCPU", runtime.NumCPU(),
	)

	var evalBuilder = evalbuilder.Get(flgEval, logger, flgEvalFile)
	if err := checkEvaluator(evalBuilder); err != nil {
		logger.Println(err)
		os.Exit(1)
	}

	var eng = engine.NewEngine(evalBuilder)

	switch flag.Arg(0) {
	case "bench":
		runBench(logger, eng, flag.Arg(1))
		return
	case "perft":
		runPerft(logger, flag.Arg(1))
		return
	}

	var protocol = usi.New(name, author, versionName, eng,
		[]usi.Option{
			&usi.IntOption{Name: "USI_Hash", Min: 1, Max: 1 << 16, Value: &eng.Options.Hash},
			&usi.IntOption{Name: "Threads", Min: 1, Max: runtime.NumCPU(), Value: &eng.Options.Threads},
			&usi.IntOption{Name: "MultiPV", Min: 1, Max: 1, Value: &eng.Options.MultiPV},
			&usi.BoolOption{Name: "OwnBook", Value: &eng.Options.OwnBook},
			&usi.StringOption{Name: "EvalFile", Value: &eng.Options.EvalFile},
		},
	)
	protocol.Run(logger)
}

func checkEvaluator(builder func() interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluator init failed: %v", r)
		}
	}()
	builder()
	return nil
}

var benchSfens = []string{
	shogi.InitialPositionSfen,
	"lnsgkgsnl/1r5b1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 4",
	"ln1gk1snl/1rs2g1b1/p1pppp1pp/1p4p2/9/2P4P1/PP1PPPP1P/1BG1S2R1/LNS1KG1NL b - 11",
	"l2gk2nl/2s2gsb1/2n1ppppp/prpp5/1p7/2PPP4/PPSG1PPPP/2B2S1R1/LN1GK2NL w - 24",
	"8l/6+P2/6+Rpk/8p/9/7P1/9/9/8K b GSr2b3g3s4n3l13p 1",
}

func runBench(logger *log.Logger, eng *engine.Engine, depthArg string) {
	var depth = 10
	if depthArg != "" {
		var d, err = strconv.Atoi(depthArg)
		if err != nil || d < 1 {
			logger.Println("bad bench depth", depthArg)
			os.Exit(1)
		}
		depth = d
	}
	eng.Options.Hash = 16
	if err := eng.Prepare(); err != nil {
		logger.Println(err)
		os.Exit(1)
	}

	var totalNodes int64
	var start = time.Now()
	for i, sfen := range benchSfens {
		var p, err = shogi.NewPositionFromSfen(sfen)
		if err != nil {
			logger.Println(err)
			os.Exit(1)
		}
		var si = eng.Search(context.Background(), shogi.SearchParams{
			Positions: []shogi.Position{p},
			Limits:    shogi.LimitsType{Depth: depth},
		})
		fmt.Printf("position %v depth %v nodes %v best %v\n",
			i+1, si.Depth, si.Nodes, si.MainLine)
		totalNodes += si.Nodes
	}
	var elapsed = time.Since(start)
	fmt.Printf("%v nodes %v nps\n", totalNodes,
		totalNodes*1000/(elapsed.Milliseconds()+1))
}

func runPerft(logger *log.Logger, depthArg string) {
	var depth = 5
	if depthArg != "" {
		var d, err = strconv.Atoi(depthArg)
		if err != nil || d < 1 {
			logger.Println("bad perft depth", depthArg)
			os.Exit(1)
		}
		depth = d
	}
	var p, err = shogi.NewPositionFromSfen(shogi.InitialPositionSfen)
	if err != nil {
		logger.Println(err)
		os.Exit(1)
	}
	var start = time.Now()
	var nodes = shogi.Perft(&p, depth)
	fmt.Printf("perft %v = %v (%v)\n", depth, nodes, time.Since(start))
}
