package shogi

type delta struct {
	df, dr int
}

const (
	dirN = iota
	dirS
	dirE
	dirW
	dirNE
	dirNW
	dirSE
	dirSW
	dirCount
)

var dirDeltas = [dirCount]delta{
	dirN:  {0, -1},
	dirS:  {0, 1},
	dirE:  {-1, 0},
	dirW:  {1, 0},
	dirNE: {-1, -1},
	dirNW: {1, -1},
	dirSE: {-1, 1},
	dirSW: {1, 1},
}

var (
	pawnAttacks   [2][SquareCount]Bitboard
	knightAttacks [2][SquareCount]Bitboard
	silverAttacks [2][SquareCount]Bitboard
	goldAttacks   [2][SquareCount]Bitboard
	kingAttacks   [SquareCount]Bitboard

	rayMask [dirCount][SquareCount]Bitboard
)

func PawnAttacks(sq int, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

func KnightAttacks(sq int, c Color) Bitboard {
	return knightAttacks[c][sq]
}

func SilverAttacks(sq int, c Color) Bitboard {
	return silverAttacks[c][sq]
}

func GoldAttacks(sq int, c Color) Bitboard {
	return goldAttacks[c][sq]
}

func KingAttacks(sq int) Bitboard {
	return kingAttacks[sq]
}

// rayAttacks walks one ray up to and including the first blocker.
func rayAttacks(dir, sq int, occ Bitboard) Bitboard {
	var attacks = rayMask[dir][sq]
	var blockers = attacks.And(occ)
	if blockers.IsEmpty() {
		return attacks
	}
	var blockSq int
	var d = dirDeltas[dir]
	if d.dr*9+d.df > 0 {
		blockSq = blockers.FirstOne()
	} else {
		blockSq = blockers.LastOne()
	}
	return attacks.Xor(rayMask[dir][blockSq])
}

func LanceAttacks(sq int, c Color, occ Bitboard) Bitboard {
	if c == Black {
		return rayAttacks(dirN, sq, occ)
	}
	return rayAttacks(dirS, sq, occ)
}

func BishopAttacks(sq int, occ Bitboard) Bitboard {
	return rayAttacks(dirNE, sq, occ).
		Or(rayAttacks(dirNW, sq, occ)).
		Or(rayAttacks(dirSE, sq, occ)).
		Or(rayAttacks(dirSW, sq, occ))
}

func RookAttacks(sq int, occ Bitboard) Bitboard {
	return rayAttacks(dirN, sq, occ).
		Or(rayAttacks(dirS, sq, occ)).
		Or(rayAttacks(dirE, sq, occ)).
		Or(rayAttacks(dirW, sq, occ))
}

func HorseAttacks(sq int, occ Bitboard) Bitboard {
	return BishopAttacks(sq, occ).Or(kingAttacks[sq])
}

func DragonAttacks(sq int, occ Bitboard) Bitboard {
	return RookAttacks(sq, occ).Or(kingAttacks[sq])
}

// PieceAttacks is the full attack set of pt on sq for color c given occ.
func PieceAttacks(pt PieceType, sq int, c Color, occ Bitboard) Bitboard {
	switch pt {
	case Pawn:
		return pawnAttacks[c][sq]
	case Lance:
		return LanceAttacks(sq, c, occ)
	case Knight:
		return knightAttacks[c][sq]
	case Silver:
		return silverAttacks[c][sq]
	case Gold, Tokin, PromotedLance, PromotedKnight, PromotedSilver:
		return goldAttacks[c][sq]
	case Bishop:
		return BishopAttacks(sq, occ)
	case Rook:
		return RookAttacks(sq, occ)
	case King:
		return kingAttacks[sq]
	case Horse:
		return HorseAttacks(sq, occ)
	case Dragon:
		return DragonAttacks(sq, occ)
	}
	panic("bad piece type")
}

func stepTargets(sq int, deltas []delta) Bitboard {
	var result Bitboard
	var f, r = File(sq), Rank(sq)
	for _, d := range deltas {
		var nf, nr = f + d.df, r + d.dr
		if nf >= 0 && nf < FileCount && nr >= 0 && nr < RankCount {
			result = result.With(MakeSquare(nf, nr))
		}
	}
	return result
}

func mirror(deltas []delta) []delta {
	var result = make([]delta, len(deltas))
	for i, d := range deltas {
		result[i] = delta{d.df, -d.dr}
	}
	return result
}

func init() {
	var pawnSteps = []delta{{0, -1}}
	var knightSteps = []delta{{-1, -2}, {1, -2}}
	var silverSteps = []delta{{0, -1}, {-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	var goldSteps = []delta{{0, -1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}}
	var kingSteps = []delta{{0, -1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}, {-1, 1}, {1, 1}}

	for sq := 0; sq < SquareCount; sq++ {
		pawnAttacks[Black][sq] = stepTargets(sq, pawnSteps)
		pawnAttacks[White][sq] = stepTargets(sq, mirror(pawnSteps))
		knightAttacks[Black][sq] = stepTargets(sq, knightSteps)
		knightAttacks[White][sq] = stepTargets(sq, mirror(knightSteps))
		silverAttacks[Black][sq] = stepTargets(sq, silverSteps)
		silverAttacks[White][sq] = stepTargets(sq, mirror(silverSteps))
		goldAttacks[Black][sq] = stepTargets(sq, goldSteps)
		goldAttacks[White][sq] = stepTargets(sq, mirror(goldSteps))
		kingAttacks[sq] = stepTargets(sq, kingSteps)

		for dir := 0; dir < dirCount; dir++ {
			var d = dirDeltas[dir]
			var f, r = File(sq) + d.df, Rank(sq) + d.dr
			for f >= 0 && f < FileCount && r >= 0 && r < RankCount {
				rayMask[dir][sq] = rayMask[dir][sq].With(MakeSquare(f, r))
				f += d.df
				r += d.dr
			}
		}
	}
}
