package shogi

import (
	"fmt"
	"math/rand"
)

// Position is a cheap-to-copy value: bitboards, mailbox, hands and keys.
type Position struct {
	byType  [PieceTypeCount]Bitboard
	byColor [2]Bitboard
	board   [81]Piece

	Hands [2]Hand
	Stm   Color

	// Key covers placement, hands and side to move. PawnKey and KingHandKey
	// are partial keys over feature subsets, used by correction history.
	Key         uint64
	PawnKey     uint64
	KingHandKey uint64

	Checkers     Bitboard
	LastMove     Move
	MoveNumber   int
	ConsecChecks [2]int16
}

type SennichiteStatus int

const (
	SennichiteNone SennichiteStatus = iota
	SennichiteDraw
	SennichiteWin
)

const SennichiteLimit = 4

var (
	sideKey  uint64
	pieceKey [2][PieceTypeCount][SquareCount]uint64
	handKey  [2][HandCount][18]uint64
)

func init() {
	var r = rand.New(rand.NewSource(20771))
	sideKey = r.Uint64()
	for c := 0; c < 2; c++ {
		for pt := 0; pt < PieceTypeCount; pt++ {
			for sq := 0; sq < SquareCount; sq++ {
				pieceKey[c][pt][sq] = r.Uint64()
			}
		}
		for slot := 0; slot < HandCount; slot++ {
			for n := 0; n < 18; n++ {
				handKey[c][slot][n] = r.Uint64()
			}
		}
	}
}

func (p *Position) PieceBB(pt PieceType, c Color) Bitboard {
	return p.byType[pt].And(p.byColor[c])
}

func (p *Position) TypeBB(pt PieceType) Bitboard {
	return p.byType[pt]
}

func (p *Position) ColorBB(c Color) Bitboard {
	return p.byColor[c]
}

func (p *Position) AllPieces() Bitboard {
	return p.byColor[Black].Or(p.byColor[White])
}

func (p *Position) PieceOn(sq int) Piece {
	return p.board[sq]
}

func (p *Position) KingSquare(c Color) int {
	return p.PieceBB(King, c).FirstOne()
}

// GoldMovers is the set of c's pieces that move like a gold.
func (p *Position) GoldMovers(c Color) Bitboard {
	return p.byType[Gold].
		Or(p.byType[Tokin]).
		Or(p.byType[PromotedLance]).
		Or(p.byType[PromotedKnight]).
		Or(p.byType[PromotedSilver]).
		And(p.byColor[c])
}

func xorPiece(p *Position, pt PieceType, c Color, sq int) {
	var b = SquareBB(sq)
	p.byType[pt] = p.byType[pt].Xor(b)
	p.byColor[c] = p.byColor[c].Xor(b)
	p.Key ^= pieceKey[c][pt][sq]
	if pt == Pawn {
		p.PawnKey ^= pieceKey[c][Pawn][sq]
	} else if pt == King {
		p.KingHandKey ^= pieceKey[c][King][sq]
	}
}

func putPiece(p *Position, pt PieceType, c Color, sq int) {
	xorPiece(p, pt, c, sq)
	p.board[sq] = MakePiece(pt, c)
}

func removePiece(p *Position, pt PieceType, c Color, sq int) {
	xorPiece(p, pt, c, sq)
	p.board[sq] = PieceNone
}

func incHand(p *Position, c Color, pt PieceType) {
	var slot = handSlot(pt)
	var k = handKey[c][slot][p.Hands[c][slot]]
	p.Key ^= k
	p.KingHandKey ^= k
	p.Hands[c][slot]++
}

func decHand(p *Position, c Color, pt PieceType) {
	var slot = handSlot(pt)
	p.Hands[c][slot]--
	var k = handKey[c][slot][p.Hands[c][slot]]
	p.Key ^= k
	p.KingHandKey ^= k
}

// MakeMove fills child with the position after move and reports whether the
// mover's king is left safe. Promotion legality is the generator's job.
func (p *Position) MakeMove(move Move, child *Position) bool {
	*child = *p
	var us = p.Stm
	var them = us.Flip()

	if move.IsDrop() {
		decHand(child, us, move.DropPiece())
		putPiece(child, move.DropPiece(), us, move.To())
	} else {
		var from, to = move.From(), move.To()
		var moving = p.board[from].Type()
		removePiece(child, moving, us, from)
		if captured := p.board[to]; captured != PieceNone {
			removePiece(child, captured.Type(), them, to)
			incHand(child, us, captured.Type().Unpromote())
		}
		if move.IsPromotion() {
			moving = moving.Promote()
		}
		putPiece(child, moving, us, to)
	}

	child.Stm = them
	child.Key ^= sideKey
	child.LastMove = move
	child.MoveNumber = p.MoveNumber + 1

	if child.isAttackedBy(child.KingSquare(us), them) {
		return false
	}

	child.Checkers = child.computeCheckers()
	if child.IsCheck() {
		child.ConsecChecks[us] = p.ConsecChecks[us] + 1
	} else {
		child.ConsecChecks[us] = 0
	}
	return true
}

// MakeNullMove passes the turn; the side to move must not be in check.
func (p *Position) MakeNullMove(child *Position) {
	*child = *p
	child.Stm = p.Stm.Flip()
	child.Key ^= sideKey
	child.LastMove = MoveEmpty
	child.Checkers = Bitboard{}
	child.ConsecChecks[p.Stm] = 0
}

// KeyAfter predicts the full key after move without applying it.
func (p *Position) KeyAfter(move Move) uint64 {
	var key = p.Key ^ sideKey
	var us = p.Stm
	if move.IsDrop() {
		var pt = move.DropPiece()
		var slot = handSlot(pt)
		key ^= handKey[us][slot][p.Hands[us][slot]-1]
		key ^= pieceKey[us][pt][move.To()]
		return key
	}
	var from, to = move.From(), move.To()
	var moving = p.board[from].Type()
	key ^= pieceKey[us][moving][from]
	if captured := p.board[to]; captured != PieceNone {
		var them = us.Flip()
		key ^= pieceKey[them][captured.Type()][to]
		var slot = handSlot(captured.Type().Unpromote())
		key ^= handKey[us][slot][p.Hands[us][slot]]
	}
	if move.IsPromotion() {
		moving = moving.Promote()
	}
	key ^= pieceKey[us][moving][to]
	return key
}

// isAttackedBy reports whether side c attacks sq.
func (p *Position) isAttackedBy(sq int, c Color) bool {
	var occ = p.AllPieces()
	var reverse = c.Flip()
	if !pawnAttacks[reverse][sq].And(p.PieceBB(Pawn, c)).IsEmpty() {
		return true
	}
	if !knightAttacks[reverse][sq].And(p.PieceBB(Knight, c)).IsEmpty() {
		return true
	}
	if !silverAttacks[reverse][sq].And(p.PieceBB(Silver, c)).IsEmpty() {
		return true
	}
	if !goldAttacks[reverse][sq].And(p.GoldMovers(c)).IsEmpty() {
		return true
	}
	var kingish = p.byType[King].Or(p.byType[Horse]).Or(p.byType[Dragon]).And(p.byColor[c])
	if !kingAttacks[sq].And(kingish).IsEmpty() {
		return true
	}
	if !LanceAttacks(sq, reverse, occ).And(p.PieceBB(Lance, c)).IsEmpty() {
		return true
	}
	var diag = p.byType[Bishop].Or(p.byType[Horse]).And(p.byColor[c])
	if !BishopAttacks(sq, occ).And(diag).IsEmpty() {
		return true
	}
	var orth = p.byType[Rook].Or(p.byType[Dragon]).And(p.byColor[c])
	if !RookAttacks(sq, occ).And(orth).IsEmpty() {
		return true
	}
	return false
}

// attackersTo collects every piece of both colors attacking sq through occ.
func (p *Position) attackersTo(sq int, occ Bitboard) Bitboard {
	var result Bitboard
	for c := Black; c <= White; c++ {
		var reverse = c.Flip()
		var atk = pawnAttacks[reverse][sq].And(p.PieceBB(Pawn, c))
		atk = atk.Or(knightAttacks[reverse][sq].And(p.PieceBB(Knight, c)))
		atk = atk.Or(silverAttacks[reverse][sq].And(p.PieceBB(Silver, c)))
		atk = atk.Or(goldAttacks[reverse][sq].And(p.GoldMovers(c)))
		atk = atk.Or(LanceAttacks(sq, reverse, occ).And(p.PieceBB(Lance, c)))
		result = result.Or(atk)
	}
	var kingish = p.byType[King].Or(p.byType[Horse]).Or(p.byType[Dragon])
	result = result.Or(kingAttacks[sq].And(kingish))
	result = result.Or(BishopAttacks(sq, occ).And(p.byType[Bishop].Or(p.byType[Horse])))
	result = result.Or(RookAttacks(sq, occ).And(p.byType[Rook].Or(p.byType[Dragon])))
	return result.And(occ)
}

// AttackersTo is the public form of attackersTo, used by exchange evaluation.
func (p *Position) AttackersTo(sq int, occ Bitboard) Bitboard {
	return p.attackersTo(sq, occ)
}

func (p *Position) computeCheckers() Bitboard {
	return p.attackersTo(p.KingSquare(p.Stm), p.AllPieces()).And(p.byColor[p.Stm.Flip()])
}

func (p *Position) IsCheck() bool {
	return !p.Checkers.IsEmpty()
}

// TestSennichite counts exact key repetitions in keyHistory. On the limit-th
// occurrence it returns Win for the side to move when the opponent delivered
// check on every move through the cycle, else Draw.
func (p *Position) TestSennichite(keyHistory []uint64, limit int) SennichiteStatus {
	// The side to move is part of the key, so only same-parity entries can
	// match; scanning every entry keeps the walk correct across null moves.
	var matches = 1
	for i := len(keyHistory) - 2; i >= 0; i-- {
		if keyHistory[i] == p.Key {
			matches++
			if matches >= limit {
				var span = len(keyHistory) - i
				if p.IsCheck() && int(p.ConsecChecks[p.Stm.Flip()])*2 >= span {
					return SennichiteWin
				}
				return SennichiteDraw
			}
		}
	}
	return SennichiteNone
}

// IsEnteringKingsWin applies the 27-point declaration rule for the side to move.
func (p *Position) IsEnteringKingsWin() bool {
	var us = p.Stm
	var zone = PromotionZone[us]
	if !zone.Has(p.KingSquare(us)) || p.IsCheck() {
		return false
	}
	var zonePieces = p.byColor[us].And(zone).AndNot(p.byType[King])
	if zonePieces.PopCount() < 10 {
		return false
	}
	var bigs = p.byType[Bishop].Or(p.byType[Rook]).Or(p.byType[Horse]).Or(p.byType[Dragon])
	var bigCount = zonePieces.And(bigs).PopCount()
	var points = bigCount*5 + (zonePieces.PopCount() - bigCount)
	var hand = &p.Hands[us]
	points += 5 * (int(hand[HandBishop]) + int(hand[HandRook]))
	points += int(hand[HandPawn]) + int(hand[HandLance]) + int(hand[HandKnight]) +
		int(hand[HandSilver]) + int(hand[HandGold])
	if us == Black {
		return points >= 28
	}
	return points >= 27
}

func (p *Position) computeKey() uint64 {
	var result uint64
	if p.Stm == White {
		result ^= sideKey
	}
	for sq := 0; sq < SquareCount; sq++ {
		if piece := p.board[sq]; piece != PieceNone {
			result ^= pieceKey[piece.Color()][piece.Type()][sq]
		}
	}
	for c := Black; c <= White; c++ {
		for slot := 0; slot < HandCount; slot++ {
			for n := 0; n < int(p.Hands[c][slot]); n++ {
				result ^= handKey[c][slot][n]
			}
		}
	}
	return result
}

func (p *Position) computePawnKey() uint64 {
	var result uint64
	for c := Black; c <= White; c++ {
		for bb := p.PieceBB(Pawn, c); !bb.IsEmpty(); {
			result ^= pieceKey[c][Pawn][bb.PopFirst()]
		}
	}
	return result
}

func (p *Position) computeKingHandKey() uint64 {
	var result uint64
	for c := Black; c <= White; c++ {
		result ^= pieceKey[c][King][p.KingSquare(c)]
		for slot := 0; slot < HandCount; slot++ {
			for n := 0; n < int(p.Hands[c][slot]); n++ {
				result ^= handKey[c][slot][n]
			}
		}
	}
	return result
}

// createPosition builds and validates a position from raw parts. The side to
// move is to move; the opponent's king must not already be attackable.
func createPosition(board [81]Piece, hands [2]Hand, stm Color, moveNumber int) (Position, error) {
	var p = Position{
		Hands:      hands,
		Stm:        stm,
		MoveNumber: moveNumber,
	}
	for sq := range p.board {
		p.board[sq] = PieceNone
	}
	for sq, piece := range board {
		if piece != PieceNone {
			putPiece(&p, piece.Type(), piece.Color(), sq)
		}
	}
	for c := Black; c <= White; c++ {
		if p.PieceBB(King, c).PopCount() != 1 {
			return Position{}, fmt.Errorf("side %v must have exactly one king", c)
		}
		for slot := 0; slot < HandCount; slot++ {
			if hands[c][slot] > handMaxCounts[slot] {
				return Position{}, fmt.Errorf("hand overflow in slot %v", slot)
			}
			var k = handKey[c][slot]
			for n := 0; n < int(hands[c][slot]); n++ {
				p.Key ^= k[n]
				p.KingHandKey ^= k[n]
			}
		}
	}
	if stm == White {
		p.Key ^= sideKey
	}
	if p.isAttackedBy(p.KingSquare(stm.Flip()), stm) {
		return Position{}, fmt.Errorf("side not to move is in check")
	}
	p.Checkers = p.computeCheckers()
	return p, nil
}

// MirrorPosition swaps the players: the board is rotated, piece colors and
// hands exchanged, and the side to move flipped.
func MirrorPosition(p *Position) Position {
	var board [81]Piece
	for i := range board {
		board[i] = PieceNone
	}
	for sq := 0; sq < SquareCount; sq++ {
		if piece := p.board[sq]; piece != PieceNone {
			board[RotateSquare(sq)] = MakePiece(piece.Type(), piece.Color().Flip())
		}
	}
	var hands = [2]Hand{p.Hands[White], p.Hands[Black]}
	var result, err = createPosition(board, hands, p.Stm.Flip(), p.MoveNumber)
	if err != nil {
		panic(err)
	}
	return result
}

// IsLegal reports pseudo-legality plus king safety. Off the hot path; the
// search uses MakeMove's result instead.
func (p *Position) IsLegal(move Move) bool {
	if !p.IsPseudolegal(move) {
		return false
	}
	var child Position
	return p.MakeMove(move, &child)
}

// IsPseudolegal validates the shape of a move against this position: piece
// present, destination reachable, drop restrictions honored.
func (p *Position) IsPseudolegal(move Move) bool {
	if move == MoveEmpty {
		return false
	}
	var us = p.Stm
	var to = move.To()

	if move.IsDrop() {
		var pt = move.DropPiece()
		if p.Hands[us].Count(pt) == 0 || p.board[to] != PieceNone {
			return false
		}
		var rr = RelativeRank(us, to)
		switch pt {
		case Pawn:
			if rr == 0 || p.pawnOnFile(us, File(to)) || p.isPawnDropMate(to) {
				return false
			}
		case Lance:
			if rr == 0 {
				return false
			}
		case Knight:
			if rr <= 1 {
				return false
			}
		}
		return true
	}

	var from = move.From()
	var piece = p.board[from]
	if piece == PieceNone || piece.Color() != us {
		return false
	}
	if dst := p.board[to]; dst != PieceNone && dst.Color() == us {
		return false
	}
	var pt = piece.Type()
	if !PieceAttacks(pt, from, us, p.AllPieces()).Has(to) {
		return false
	}
	if move.IsPromotion() {
		if !pt.CanPromote() {
			return false
		}
		if !PromotionZone[us].Has(from) && !PromotionZone[us].Has(to) {
			return false
		}
	} else if mustPromote(pt, us, to) {
		return false
	}
	return true
}

// mustPromote reports whether a non-promoting move of pt to sq would strand it.
func mustPromote(pt PieceType, c Color, to int) bool {
	var rr = RelativeRank(c, to)
	switch pt {
	case Pawn, Lance:
		return rr == 0
	case Knight:
		return rr <= 1
	}
	return false
}

func (p *Position) pawnOnFile(c Color, file int) bool {
	return !p.PieceBB(Pawn, c).And(FileMask[file]).IsEmpty()
}

// isPawnDropMate detects uchifuzume: a pawn dropped on to that delivers an
// inescapable check. The checker is adjacent to the king, so the only escapes
// are capturing it or moving the king; drops never help.
func (p *Position) isPawnDropMate(to int) bool {
	var them = p.Stm.Flip()
	var kingSq = p.KingSquare(them)
	if !pawnAttacks[p.Stm][to].Has(kingSq) {
		return false
	}
	var child Position
	if !p.MakeMove(MakeDropMove(Pawn, to), &child) {
		return false
	}
	if !child.IsCheck() {
		return false
	}
	var grandChild Position
	var captors = child.attackersTo(to, child.AllPieces()).And(child.byColor[them])
	for bb := captors; !bb.IsEmpty(); {
		var from = bb.PopFirst()
		var move = MakeBoardMove(from, to)
		if mustPromote(child.board[from].Type(), them, to) {
			move = MakePromotionMove(from, to)
		}
		if child.MakeMove(move, &grandChild) {
			return false
		}
	}
	for bb := kingAttacks[kingSq].AndNot(child.byColor[them]).Without(to); !bb.IsEmpty(); {
		if child.MakeMove(MakeBoardMove(kingSq, bb.PopFirst()), &grandChild) {
			return false
		}
	}
	return true
}
