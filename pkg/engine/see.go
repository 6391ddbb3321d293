package engine

import (
	. "github.com/mzaitsev/tokin/pkg/shogi"
)

var seeValues = [PieceTypeCount]int{
	Pawn:   100,
	Lance:  400,
	Knight: 500,
	Silver: 600,
	Gold:   800,
	Bishop: 1100,
	Rook:   1300,
	King:   10000,
	Tokin:  1000, PromotedLance: 900, PromotedKnight: 900,
	PromotedSilver: 800, Horse: 1500, Dragon: 1700,
}

func seeGEZero(p *Position, move Move) bool {
	return SeeGE(p, move, 0)
}

// SeeGE reports whether the static exchange on move's target square is at
// least threshold centipawns for the mover.
func SeeGE(p *Position, move Move, threshold int) bool {
	var to = move.To()
	var balance = -threshold
	var nextVictim PieceType
	var occ = p.AllPieces()

	if move.IsDrop() {
		nextVictim = move.DropPiece()
		occ = occ.With(to)
	} else {
		var from = move.From()
		var moving = p.PieceOn(from).Type()
		nextVictim = moving
		if captured := p.PieceOn(to); captured != PieceNone {
			balance += seeValues[captured.Type()]
		}
		if move.IsPromotion() {
			nextVictim = moving.Promote()
			balance += seeValues[nextVictim] - seeValues[moving]
		}
		occ = occ.Without(from).With(to)
	}

	if balance < 0 {
		return false
	}
	balance -= seeValues[nextVictim]
	if balance >= 0 {
		return true
	}

	var side = p.Stm.Flip()
	for {
		var attackers = p.AttackersTo(to, occ).And(occ)
		var myAttackers = attackers.And(p.ColorBB(side))
		if myAttackers.IsEmpty() {
			break
		}

		var attackerType, attackerFrom = leastValuableAttacker(p, myAttackers)
		occ = occ.Without(attackerFrom)
		side = side.Flip()

		balance = -balance - 1 - seeValues[attackerType]
		if balance >= 0 {
			if attackerType == King &&
				!p.AttackersTo(to, occ).And(occ).And(p.ColorBB(side)).IsEmpty() {
				// the king cannot finish the exchange into a defended square
				side = side.Flip()
			}
			break
		}
	}

	return side != p.Stm
}

var seeOrder = [...]PieceType{
	Pawn, Lance, Knight, Silver, Gold, PromotedSilver,
	PromotedLance, PromotedKnight, Tokin, Bishop, Rook, Horse, Dragon, King,
}

func leastValuableAttacker(p *Position, attackers Bitboard) (PieceType, int) {
	for _, pt := range seeOrder {
		if bb := p.TypeBB(pt).And(attackers); !bb.IsEmpty() {
			return pt, bb.FirstOne()
		}
	}
	return PieceTypeNone, SquareNone
}

// mvvlva orders captures by victim value first, attacker value last.
func mvvlva(p *Position, move Move) int {
	var score = 0
	if captured := p.PieceOn(move.To()); captured != PieceNone {
		score += 8 * seeValues[captured.Type()]
	}
	if !move.IsDrop() {
		if move.IsPromotion() {
			score += 8 * seeValues[Tokin]
		}
		score -= seeValues[p.PieceOn(move.From()).Type()] / 10
	}
	return score
}
