package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/mzaitsev/tokin/internal/datagen"
	"github.com/mzaitsev/tokin/internal/evalbuilder"
)

func main() {
	var settings datagen.Settings
	var flgEval string
	var flgEvalFile string
	flag.IntVar(&settings.Games, "games", 1000, "number of self-play games")
	flag.IntVar(&settings.Threads, "threads", runtime.NumCPU(), "worker count")
	flag.StringVar(&settings.ResultPath, "out", "dataset.txt", "output file")
	flag.Int64Var(&settings.SearchNodes, "nodes", 5000, "search nodes per move")
	flag.Int64Var(&settings.Seed, "seed", time.Now().UnixNano(), "rng seed")
	flag.StringVar(&flgEval, "eval", "", "specifies evaluation function")
	flag.StringVar(&flgEvalFile, "evalfile", "", "path to nnue weights")
	flag.Parse()

	var logger = log.New(os.Stderr, "", log.LstdFlags)

	var ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var err = datagen.Run(ctx, logger, settings,
		evalbuilder.Get(flgEval, logger, flgEvalFile))
	if err != nil {
		logger.Println(err)
		os.Exit(1)
	}
}
