package eval

import (
	. "github.com/mzaitsev/tokin/pkg/shogi"
)

// Piece values for the material count. SEE in pkg/engine keeps its own table.
const (
	ValuePawn           = 100
	ValueLance          = 400
	ValueKnight         = 500
	ValueSilver         = 600
	ValueGold           = 800
	ValueBishop         = 1100
	ValueRook           = 1300
	ValueTokin          = 1000
	ValuePromotedLance  = 900
	ValuePromotedKnight = 900
	ValuePromotedSilver = 800
	ValueHorse          = 1500
	ValueDragon         = 1700
)

var PieceValues = [PieceTypeCount]int{
	Pawn:   ValuePawn,
	Lance:  ValueLance,
	Knight: ValueKnight,
	Silver: ValueSilver,
	Gold:   ValueGold,
	Bishop: ValueBishop,
	Rook:   ValueRook,
	King:   0,
	Tokin:  ValueTokin, PromotedLance: ValuePromotedLance, PromotedKnight: ValuePromotedKnight,
	PromotedSilver: ValuePromotedSilver, Horse: ValueHorse, Dragon: ValueDragon,
}

const (
	lanceMobility  = 7
	knightMobility = 13
	silverMobility = 16
	goldMobility   = 16
	bishopMobility = 6
	rookMobility   = 7
	horseMobility  = 6
	dragonMobility = 7
)

type EvaluationService struct{}

func NewEvaluationService() *EvaluationService {
	return &EvaluationService{}
}

// Evaluate scores the position from the side to move's point of view.
func (e *EvaluationService) Evaluate(p *Position) int {
	var us = p.Stm
	var them = us.Flip()
	var score = evalMaterial(p, us) - evalMaterial(p, them)
	score += evalMobility(p, us) - evalMobility(p, them)
	return score
}

func evalMaterial(p *Position, c Color) int {
	var score = 0
	for pt := Pawn; pt < PieceTypeCount; pt++ {
		score += PieceValues[pt] * p.PieceBB(pt, c).PopCount()
	}
	var hand = p.Hands[c]
	score += ValuePawn * int(hand[HandPawn])
	score += ValueLance * int(hand[HandLance])
	score += ValueKnight * int(hand[HandKnight])
	score += ValueSilver * int(hand[HandSilver])
	score += ValueGold * int(hand[HandGold])
	score += ValueBishop * int(hand[HandBishop])
	score += ValueRook * int(hand[HandRook])
	return score
}

func evalMobility(p *Position, c Color) int {
	var occ = p.AllPieces()
	var own = p.ColorBB(c)
	var score = 0

	var count = func(bb Bitboard, attacks func(sq int) Bitboard) int {
		var n = 0
		for !bb.IsEmpty() {
			n += attacks(bb.PopFirst()).AndNot(own).PopCount()
		}
		return n
	}

	score += lanceMobility * count(p.PieceBB(Lance, c), func(sq int) Bitboard {
		return LanceAttacks(sq, c, occ)
	})
	score += knightMobility * count(p.PieceBB(Knight, c), func(sq int) Bitboard {
		return KnightAttacks(sq, c)
	})
	score += silverMobility * count(p.PieceBB(Silver, c), func(sq int) Bitboard {
		return SilverAttacks(sq, c)
	})
	score += goldMobility * count(p.GoldMovers(c), func(sq int) Bitboard {
		return GoldAttacks(sq, c)
	})
	score += bishopMobility * count(p.PieceBB(Bishop, c), func(sq int) Bitboard {
		return BishopAttacks(sq, occ)
	})
	score += rookMobility * count(p.PieceBB(Rook, c), func(sq int) Bitboard {
		return RookAttacks(sq, occ)
	})
	score += horseMobility * count(p.PieceBB(Horse, c), func(sq int) Bitboard {
		return HorseAttacks(sq, occ)
	})
	score += dragonMobility * count(p.PieceBB(Dragon, c), func(sq int) Bitboard {
		return DragonAttacks(sq, occ)
	})
	return score
}
