package shogi

// appendMoves pushes the promoted and unpromoted shapes of a board move,
// dropping whichever the rules forbid.
func appendMoves(ml []OrderedMove, pt PieceType, c Color, from, to int) []OrderedMove {
	if pt.CanPromote() && (PromotionZone[c].Has(from) || PromotionZone[c].Has(to)) {
		ml = append(ml, OrderedMove{Move: MakePromotionMove(from, to)})
		if !mustPromote(pt, c, to) {
			ml = append(ml, OrderedMove{Move: MakeBoardMove(from, to)})
		}
		return ml
	}
	return append(ml, OrderedMove{Move: MakeBoardMove(from, to)})
}

func (p *Position) generateBoardMoves(ml []OrderedMove, targets Bitboard) []OrderedMove {
	var us = p.Stm
	var occ = p.AllPieces()
	for pt := Pawn; pt < PieceTypeCount; pt++ {
		for fromBB := p.PieceBB(pt, us); !fromBB.IsEmpty(); {
			var from = fromBB.PopFirst()
			for toBB := PieceAttacks(pt, from, us, occ).And(targets); !toBB.IsEmpty(); {
				ml = appendMoves(ml, pt, us, from, toBB.PopFirst())
			}
		}
	}
	return ml
}

// GenerateCaptures produces pseudo-legal moves onto enemy-occupied squares.
// Drops never capture.
func (p *Position) GenerateCaptures(ml []OrderedMove) []OrderedMove {
	return p.generateBoardMoves(ml, p.byColor[p.Stm.Flip()])
}

// GenerateRecaptures produces only captures landing on sq.
func (p *Position) GenerateRecaptures(ml []OrderedMove, sq int) []OrderedMove {
	if !p.byColor[p.Stm.Flip()].Has(sq) {
		return ml
	}
	var us = p.Stm
	var captors = p.attackersTo(sq, p.AllPieces()).And(p.byColor[us])
	for bb := captors; !bb.IsEmpty(); {
		var from = bb.PopFirst()
		ml = appendMoves(ml, p.board[from].Type(), us, from, sq)
	}
	return ml
}

// GenerateNonCaptures produces quiet board moves and all drops.
func (p *Position) GenerateNonCaptures(ml []OrderedMove) []OrderedMove {
	var us = p.Stm
	var empties = p.AllPieces().Xor(fullBoard)
	ml = p.generateBoardMoves(ml, empties)

	var hand = &p.Hands[us]
	if hand.Empty() {
		return ml
	}

	if hand[HandPawn] > 0 {
		var mask = empties.AndNot(relativeRankMask(us, 0))
		for f := 0; f < FileCount; f++ {
			if p.pawnOnFile(us, f) {
				mask = mask.AndNot(FileMask[f])
			}
		}
		var kingFront = pawnDropCheckSquare(us, p.KingSquare(us.Flip()))
		for bb := mask; !bb.IsEmpty(); {
			var to = bb.PopFirst()
			if to == kingFront && p.isPawnDropMate(to) {
				continue
			}
			ml = append(ml, OrderedMove{Move: MakeDropMove(Pawn, to)})
		}
	}
	if hand[HandLance] > 0 {
		ml = appendDrops(ml, Lance, empties.AndNot(relativeRankMask(us, 0)))
	}
	if hand[HandKnight] > 0 {
		var mask = empties.AndNot(relativeRankMask(us, 0)).AndNot(relativeRankMask(us, 1))
		ml = appendDrops(ml, Knight, mask)
	}
	if hand[HandSilver] > 0 {
		ml = appendDrops(ml, Silver, empties)
	}
	if hand[HandGold] > 0 {
		ml = appendDrops(ml, Gold, empties)
	}
	if hand[HandBishop] > 0 {
		ml = appendDrops(ml, Bishop, empties)
	}
	if hand[HandRook] > 0 {
		ml = appendDrops(ml, Rook, empties)
	}
	return ml
}

func appendDrops(ml []OrderedMove, pt PieceType, mask Bitboard) []OrderedMove {
	for bb := mask; !bb.IsEmpty(); {
		ml = append(ml, OrderedMove{Move: MakeDropMove(pt, bb.PopFirst())})
	}
	return ml
}

// GenerateAll is the full pseudo-legal move set.
func (p *Position) GenerateAll(ml []OrderedMove) []OrderedMove {
	ml = p.GenerateCaptures(ml)
	return p.GenerateNonCaptures(ml)
}

// GenerateLegalMoves filters GenerateAll by king safety. Allocates; meant for
// the protocol layer and root setup, not the search.
func (p *Position) GenerateLegalMoves() []Move {
	var buffer [MaxMoves]OrderedMove
	var child Position
	var result []Move
	var ml = p.GenerateAll(buffer[:0])
	for i := range ml {
		if p.MakeMove(ml[i].Move, &child) {
			result = append(result, ml[i].Move)
		}
	}
	return result
}

// pawnDropCheckSquare is the one square from which a c pawn checks a king on kingSq.
func pawnDropCheckSquare(c Color, kingSq int) int {
	if c == Black {
		if Rank(kingSq) == 8 {
			return SquareNone
		}
		return kingSq + 9
	}
	if Rank(kingSq) == 0 {
		return SquareNone
	}
	return kingSq - 9
}

func relativeRankMask(c Color, rr int) Bitboard {
	if c == Black {
		return RankMask[rr]
	}
	return RankMask[8-rr]
}

var fullBoard Bitboard

func init() {
	for sq := 0; sq < SquareCount; sq++ {
		fullBoard = fullBoard.With(sq)
	}
}

// Perft counts leaf nodes of the legal move tree to the given depth.
func Perft(p *Position, depth int) int {
	var result = 0
	var buffer [MaxMoves]OrderedMove
	var child Position
	var ml = p.GenerateAll(buffer[:0])
	for i := range ml {
		if p.MakeMove(ml[i].Move, &child) {
			if depth > 1 {
				result += Perft(&child, depth-1)
			} else {
				result++
			}
		}
	}
	return result
}
