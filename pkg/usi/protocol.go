package usi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/mzaitsev/tokin/pkg/shogi"
)

type Engine interface {
	Prepare() error
	Clear()
	Ready() bool
	Search(ctx context.Context, params shogi.SearchParams) shogi.SearchInfo
}

type Protocol struct {
	name         string
	author       string
	version      string
	options      []Option
	engine       Engine
	positions    []shogi.Position
	thinking     bool
	engineOutput chan shogi.SearchInfo
	cancel       context.CancelFunc
}

func New(name, author, version string, engine Engine, options []Option) *Protocol {
	var initPosition, err = shogi.NewPositionFromSfen(shogi.InitialPositionSfen)
	if err != nil {
		panic(err)
	}
	return &Protocol{
		name:      name,
		author:    author,
		version:   version,
		engine:    engine,
		options:   options,
		positions: []shogi.Position{initPosition},
	}
}

func (p *Protocol) Run(logger *log.Logger) {
	var commands = make(chan string)

	go func() {
		defer close(commands)
		readCommands(commands)
	}()

	var searchResult shogi.SearchInfo
	for {
		select {
		case si, ok := <-p.engineOutput:
			if ok {
				fmt.Println(searchInfoToUsi(si))
				searchResult = si
			} else {
				if len(searchResult.MainLine) != 0 {
					fmt.Printf("bestmove %v\n", searchResult.MainLine[0])
				} else {
					fmt.Println("bestmove resign")
				}
				p.thinking = false
				p.cancel = nil
				p.engineOutput = nil
				searchResult = shogi.SearchInfo{}
			}
		case commandLine, ok := <-commands:
			if !ok {
				// quit
				if p.cancel != nil {
					p.cancel()
				}
				return
			}
			if err := p.handle(commandLine); err != nil {
				fmt.Printf("info string %v\n", err)
				logger.Println(err)
			}
		}
	}
}

func readCommands(commands chan<- string) {
	var scanner = bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var commandLine = scanner.Text()
		if commandLine == "quit" {
			return
		}
		if commandLine != "" {
			commands <- commandLine
		}
	}
}

func (p *Protocol) handle(commandLine string) error {
	var fields = strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	var commandName = fields[0]
	fields = fields[1:]

	if p.thinking {
		if commandName == "stop" {
			p.cancel()
			return nil
		}
		return errors.New("search still running")
	}

	switch commandName {
	case "usi":
		return p.usiCommand(fields)
	case "setoption":
		return p.setOptionCommand(fields)
	case "isready":
		return p.isReadyCommand(fields)
	case "usinewgame":
		p.engine.Clear()
		return nil
	case "position":
		return p.positionCommand(fields)
	case "go":
		return p.goCommand(fields)
	case "stop":
		return nil
	case "d":
		return p.displayCommand(fields)
	case "perft":
		return p.perftCommand(fields)
	case "gameover", "ponderhit":
		return nil
	}
	return fmt.Errorf("unknown command %v", commandName)
}

func (p *Protocol) usiCommand(fields []string) error {
	fmt.Printf("id name %v %v\n", p.name, p.version)
	fmt.Printf("id author %v\n", p.author)
	for _, option := range p.options {
		fmt.Println(option.UsiString())
	}
	fmt.Println("usiok")
	return nil
}

func (p *Protocol) setOptionCommand(fields []string) error {
	var nameIndex = findIndexString(fields, "name")
	var valueIndex = findIndexString(fields, "value")
	if nameIndex != 0 || valueIndex < 2 || valueIndex+1 >= len(fields) {
		return errors.New("invalid setoption arguments")
	}
	var name = strings.Join(fields[nameIndex+1:valueIndex], " ")
	var value = strings.Join(fields[valueIndex+1:], " ")
	for _, option := range p.options {
		if matchOptionName(option.UsiName(), name) {
			return option.Set(value)
		}
	}
	return fmt.Errorf("unknown option %v", name)
}

func (p *Protocol) isReadyCommand(fields []string) error {
	if err := p.engine.Prepare(); err != nil {
		return err
	}
	fmt.Println("readyok")
	return nil
}

func (p *Protocol) positionCommand(fields []string) error {
	if len(fields) == 0 {
		return errors.New("invalid position command")
	}
	var movesIndex = findIndexString(fields, "moves")
	var sfen string
	if fields[0] == "startpos" {
		sfen = shogi.InitialPositionSfen
	} else if fields[0] == "sfen" {
		if movesIndex == -1 {
			sfen = strings.Join(fields[1:], " ")
		} else {
			sfen = strings.Join(fields[1:movesIndex], " ")
		}
	} else {
		return errors.New("invalid position command")
	}
	var pos, err = shogi.NewPositionFromSfen(sfen)
	if err != nil {
		return err
	}
	var positions = []shogi.Position{pos}
	if movesIndex >= 0 {
		for _, smove := range fields[movesIndex+1:] {
			var next, ok = positions[len(positions)-1].MakeMoveUSI(smove)
			if !ok {
				return fmt.Errorf("illegal move %v", smove)
			}
			positions = append(positions, next)
		}
	}
	p.positions = positions
	return nil
}

func (p *Protocol) goCommand(fields []string) error {
	if !p.engine.Ready() {
		if err := p.engine.Prepare(); err != nil {
			return err
		}
	}
	var current = &p.positions[len(p.positions)-1]
	if current.IsEnteringKingsWin() {
		fmt.Println("bestmove win")
		return nil
	}
	if len(current.GenerateLegalMoves()) == 0 {
		fmt.Println("info string no legal moves")
		fmt.Println("bestmove resign")
		return nil
	}

	var limits = parseLimits(fields)
	var ctx, cancel = context.WithCancel(context.Background())
	p.cancel = cancel
	p.thinking = true
	p.engineOutput = make(chan shogi.SearchInfo, 3)
	var output = p.engineOutput
	go func() {
		var searchResult = p.engine.Search(ctx, shogi.SearchParams{
			Positions: p.positions,
			Limits:    limits,
			Progress: func(si shogi.SearchInfo) {
				select {
				case output <- si:
				default:
				}
			},
		})
		output <- searchResult
		close(output)
	}()
	return nil
}

func (p *Protocol) displayCommand(fields []string) error {
	var current = &p.positions[len(p.positions)-1]
	fmt.Printf("Sfen: %v\n", current.Sfen())
	fmt.Printf("Key: %016x\n", current.Key)
	return nil
}

func (p *Protocol) perftCommand(fields []string) error {
	if len(fields) == 0 {
		return errors.New("perft needs a depth")
	}
	var depth, err = strconv.Atoi(fields[0])
	if err != nil || depth < 1 {
		return errors.New("perft needs a positive depth")
	}
	var current = p.positions[len(p.positions)-1]
	fmt.Println(shogi.Perft(&current, depth))
	return nil
}

func searchInfoToUsi(si shogi.SearchInfo) string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "info depth %v", si.Depth)
	if si.Seldepth > 0 {
		fmt.Fprintf(sb, " seldepth %v", si.Seldepth)
	}
	var timeMs = si.Time.Milliseconds()
	fmt.Fprintf(sb, " time %v nodes %v nps %v", timeMs, si.Nodes, si.Nodes*1000/(timeMs+1))
	if si.Score.Mate != 0 {
		fmt.Fprintf(sb, " score mate %v", si.Score.Mate)
	} else {
		fmt.Fprintf(sb, " score cp %v", si.Score.Centipawns)
	}
	switch si.Bound {
	case shogi.BoundLower:
		sb.WriteString(" lowerbound")
	case shogi.BoundUpper:
		sb.WriteString(" upperbound")
	}
	fmt.Fprintf(sb, " hashfull %v", si.Hashfull)
	if len(si.MainLine) != 0 {
		sb.WriteString(" pv")
		for _, move := range si.MainLine {
			sb.WriteString(" ")
			sb.WriteString(move.String())
		}
	}
	return sb.String()
}

func parseLimits(args []string) (result shogi.LimitsType) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "btime":
			result.BlackTime = nextInt(args, &i)
		case "wtime":
			result.WhiteTime = nextInt(args, &i)
		case "binc":
			result.BlackInc = nextInt(args, &i)
		case "winc":
			result.WhiteInc = nextInt(args, &i)
		case "byoyomi":
			result.Byoyomi = nextInt(args, &i)
		case "depth":
			result.Depth = nextInt(args, &i)
		case "nodes":
			result.Nodes = int64(nextInt(args, &i))
		case "movetime":
			result.MoveTime = nextInt(args, &i)
		case "mate":
			result.Mate = nextInt(args, &i)
		case "infinite":
			result.Infinite = true
		}
	}
	return
}

func nextInt(args []string, i *int) int {
	if *i+1 >= len(args) {
		return 0
	}
	*i++
	var v, _ = strconv.Atoi(args[*i])
	return v
}

func findIndexString(slice []string, value string) int {
	for i, v := range slice {
		if v == value {
			return i
		}
	}
	return -1
}
