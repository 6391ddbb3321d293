package usi

import (
	"strings"
	"testing"
	"time"

	"github.com/mzaitsev/tokin/pkg/shogi"
)

func TestParseLimits(t *testing.T) {
	var limits = parseLimits(strings.Fields(
		"btime 60000 wtime 50000 binc 100 winc 200 byoyomi 3000 depth 12 nodes 5000 movetime 700 mate 3"))
	if limits.BlackTime != 60000 || limits.WhiteTime != 50000 ||
		limits.BlackInc != 100 || limits.WhiteInc != 200 ||
		limits.Byoyomi != 3000 || limits.Depth != 12 ||
		limits.Nodes != 5000 || limits.MoveTime != 700 || limits.Mate != 3 {
		t.Fatal("parse mismatch", limits)
	}
	if !parseLimits([]string{"infinite"}).Infinite {
		t.Fatal("infinite not parsed")
	}
}

func TestMatchOptionName(t *testing.T) {
	if !matchOptionName("USI_Hash", "usi_hash") {
		t.Error("case-insensitive match failed")
	}
	if !matchOptionName("USI_Hash", "Hash") {
		t.Error("prefix-free match failed")
	}
	if !matchOptionName("Threads", "threads") {
		t.Error("plain match failed")
	}
	if matchOptionName("Threads", "Hash") {
		t.Error("mismatched names matched")
	}
}

func TestOptionSet(t *testing.T) {
	var hash = 64
	var opt = &IntOption{Name: "USI_Hash", Min: 1, Max: 1024, Value: &hash}
	if err := opt.Set("256"); err != nil || hash != 256 {
		t.Fatal("int set", err, hash)
	}
	if err := opt.Set("4096"); err == nil {
		t.Fatal("out-of-range accepted")
	}
	if err := opt.Set("abc"); err == nil {
		t.Fatal("junk accepted")
	}
	if !strings.Contains(opt.UsiString(), "type spin default 256 min 1 max 1024") {
		t.Fatal("declaration", opt.UsiString())
	}

	var book = false
	var bopt = &BoolOption{Name: "OwnBook", Value: &book}
	if err := bopt.Set("true"); err != nil || !book {
		t.Fatal("bool set", err)
	}
}

func TestPositionCommand(t *testing.T) {
	var p = New("test", "author", "dev", nil, nil)
	if err := p.positionCommand(strings.Fields("startpos moves 7g7f 3c3d")); err != nil {
		t.Fatal(err)
	}
	if len(p.positions) != 3 {
		t.Fatal("position count", len(p.positions))
	}
	if p.positions[2].Stm != shogi.Black {
		t.Fatal("wrong side to move")
	}

	if err := p.positionCommand(strings.Fields("startpos moves 7g7f 7g7f")); err == nil {
		t.Fatal("illegal replay accepted")
	}
	if err := p.positionCommand(strings.Fields("sfen k8/9/9/9/9/9/9/9/8K b - 1")); err != nil {
		t.Fatal(err)
	}
	if err := p.positionCommand(strings.Fields("sfen k8/9/9 b - 1")); err == nil {
		t.Fatal("bad sfen accepted")
	}
}

func TestSearchInfoToUsi(t *testing.T) {
	var move, _ = shogi.ParseMove("7g7f")
	var si = shogi.SearchInfo{
		Depth:    10,
		Seldepth: 14,
		Nodes:    100000,
		Time:     time.Second,
		Hashfull: 42,
		Score:    shogi.UsiScore{Centipawns: 35},
		MainLine: []shogi.Move{move},
	}
	var line = searchInfoToUsi(si)
	for _, part := range []string{
		"info depth 10", "seldepth 14", "nodes 100000", "score cp 35",
		"hashfull 42", "pv 7g7f",
	} {
		if !strings.Contains(line, part) {
			t.Error("missing", part, "in", line)
		}
	}

	si.Score = shogi.UsiScore{Mate: 3}
	if !strings.Contains(searchInfoToUsi(si), "score mate 3") {
		t.Error("mate score missing")
	}
}
