package shogi

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const InitialPositionSfen = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

var sfenPieceLetters = map[byte]PieceType{
	'P': Pawn, 'L': Lance, 'N': Knight, 'S': Silver,
	'G': Gold, 'B': Bishop, 'R': Rook, 'K': King,
}

func pieceToSfen(piece Piece) string {
	var pt = piece.Type()
	var s = ""
	if pt.IsPromoted() {
		s = "+"
		pt = pt.Unpromote()
	}
	var ch = pieceLetters[pt]
	if piece.Color() == White {
		return s + strings.ToLower(string(ch))
	}
	return s + string(ch)
}

// NewPositionFromSfen parses "board stm hand [movenumber]".
func NewPositionFromSfen(sfen string) (Position, error) {
	var tokens = strings.Fields(sfen)
	if len(tokens) < 3 {
		return Position{}, fmt.Errorf("parse sfen failed: %q", sfen)
	}

	var board [81]Piece
	for i := range board {
		board[i] = PieceNone
	}

	var sq = 0
	var promoted = false
	for i := 0; i < len(tokens[0]); i++ {
		var ch = tokens[0][i]
		switch {
		case ch == '/':
			if promoted || sq%9 != 0 {
				return Position{}, fmt.Errorf("parse sfen failed: bad row in %q", sfen)
			}
		case ch == '+':
			promoted = true
		case unicode.IsDigit(rune(ch)):
			if promoted {
				return Position{}, fmt.Errorf("parse sfen failed: %q", sfen)
			}
			sq += int(ch - '0')
		default:
			var pt, ok = sfenPieceLetters[byte(unicode.ToUpper(rune(ch)))]
			if !ok || sq >= SquareCount {
				return Position{}, fmt.Errorf("parse sfen failed: %q", sfen)
			}
			if promoted {
				if !pt.CanPromote() {
					return Position{}, fmt.Errorf("parse sfen failed: %q", sfen)
				}
				pt = pt.Promote()
				promoted = false
			}
			var c = White
			if unicode.IsUpper(rune(ch)) {
				c = Black
			}
			board[sq] = MakePiece(pt, c)
			sq++
		}
	}
	if sq != SquareCount {
		return Position{}, fmt.Errorf("parse sfen failed: %d squares in %q", sq, sfen)
	}

	var stm Color
	switch tokens[1] {
	case "b":
		stm = Black
	case "w":
		stm = White
	default:
		return Position{}, fmt.Errorf("parse sfen failed: side %q", tokens[1])
	}

	var hands [2]Hand
	if tokens[2] != "-" {
		var count = 0
		for i := 0; i < len(tokens[2]); i++ {
			var ch = tokens[2][i]
			if unicode.IsDigit(rune(ch)) {
				count = count*10 + int(ch-'0')
				continue
			}
			var pt, ok = sfenPieceLetters[byte(unicode.ToUpper(rune(ch)))]
			if !ok || pt == King {
				return Position{}, fmt.Errorf("parse sfen failed: hand %q", tokens[2])
			}
			var c = White
			if unicode.IsUpper(rune(ch)) {
				c = Black
			}
			if count == 0 {
				count = 1
			}
			hands[c][handSlot(pt)] += uint8(count)
			count = 0
		}
	}

	var moveNumber = 1
	if len(tokens) > 3 {
		var n, err = strconv.Atoi(tokens[3])
		if err != nil {
			return Position{}, fmt.Errorf("parse sfen failed: move number %q", tokens[3])
		}
		moveNumber = n
	}

	return createPosition(board, hands, stm, moveNumber)
}

// Sfen serializes the position; parse(serialize(p)) == p for legal p.
func (p *Position) Sfen() string {
	var sb strings.Builder

	var emptyCount = 0
	for sq := 0; sq < SquareCount; sq++ {
		var piece = p.board[sq]
		if piece == PieceNone {
			emptyCount++
		} else {
			if emptyCount != 0 {
				sb.WriteString(strconv.Itoa(emptyCount))
				emptyCount = 0
			}
			sb.WriteString(pieceToSfen(piece))
		}
		if File(sq) == 8 {
			if emptyCount != 0 {
				sb.WriteString(strconv.Itoa(emptyCount))
				emptyCount = 0
			}
			if Rank(sq) != 8 {
				sb.WriteString("/")
			}
		}
	}

	if p.Stm == Black {
		sb.WriteString(" b ")
	} else {
		sb.WriteString(" w ")
	}

	var handOrder = [...]PieceType{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}
	var anyHand = false
	for c := Black; c <= White; c++ {
		for _, pt := range handOrder {
			var n = p.Hands[c].Count(pt)
			if n == 0 {
				continue
			}
			anyHand = true
			if n > 1 {
				sb.WriteString(strconv.Itoa(n))
			}
			sb.WriteString(pieceToSfen(MakePiece(pt, c)))
		}
	}
	if !anyHand {
		sb.WriteString("-")
	}

	sb.WriteString(" ")
	sb.WriteString(strconv.Itoa(p.MoveNumber))
	return sb.String()
}

func (p *Position) String() string {
	return p.Sfen()
}

// MakeMoveUSI applies a move given in USI notation, checking full legality.
func (p *Position) MakeMoveUSI(s string) (Position, bool) {
	var move, ok = ParseMove(s)
	if !ok || !p.IsPseudolegal(move) {
		return Position{}, false
	}
	var child Position
	if !p.MakeMove(move, &child) {
		return Position{}, false
	}
	return child, true
}
