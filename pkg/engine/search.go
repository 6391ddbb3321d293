package engine

import (
	. "github.com/mzaitsev/tokin/pkg/shogi"
)

func aspirationWindow(t *thread, depth int, hint Move, prevScore int) int {
	t.rootDepth = depth
	t.rootHint = hint
	if depth >= 3 && prevScore > valueLoss && prevScore < valueWin {
		var delta = 20
		var alpha = Max(-valueInfinity, prevScore-delta)
		var beta = Min(valueInfinity, prevScore+delta)
		for {
			var score = searchRoot(t, alpha, beta, depth)
			if score <= alpha {
				delta *= 2
				alpha = Max(-valueInfinity, score-delta)
			} else if score >= beta {
				delta *= 2
				beta = Min(valueInfinity, score+delta)
			} else {
				return score
			}
			if delta >= valueInfinity {
				alpha = -valueInfinity
				beta = valueInfinity
			}
		}
	}
	return searchRoot(t, -valueInfinity, valueInfinity, depth)
}

func searchRoot(t *thread, alpha, beta, depth int) int {
	var p = &t.stack[0].position
	t.evaluator.Init(p)
	return t.alphaBeta(alpha, beta, depth, 0, MoveEmpty)
}

func (t *thread) isQuiet(p *Position, move Move) bool {
	return move.IsDrop() || p.PieceOn(move.To()) == PieceNone
}

// alphaBeta is the main search. skipMove, when set, excludes one move for a
// singular verification search; such nodes neither probe nor store the TT.
func (t *thread) alphaBeta(alpha, beta, depth, height int, skipMove Move) int {
	if depth <= 0 {
		return t.quiescence(alpha, beta, height, 0)
	}
	t.clearPV(height)

	var rootNode = height == 0
	var pvNode = beta != alpha+1
	var position = &t.stack[height].position
	var isCheck = position.IsCheck()
	var options = &t.engine.Options

	if !rootNode {
		if height >= maxHeight {
			return t.evaluator.EvaluateQuick(position)
		}
		if position.IsEnteringKingsWin() {
			return winIn(height)
		}
		// mate distance pruning
		alpha = Max(alpha, lossIn(height))
		beta = Min(beta, winIn(height+1))
		if alpha >= beta {
			return alpha
		}
	}

	var (
		ttDepth, ttValue, ttBound int
		ttMove                    Move
		ttHit                     bool
	)
	if skipMove == MoveEmpty {
		ttDepth, ttValue, ttBound, ttMove, ttHit = t.engine.transTable.Read(position.Key, height)
	}
	if ttHit && !pvNode && !rootNode && ttDepth >= depth {
		if (ttBound&boundLower) != 0 && ttValue >= beta {
			return ttValue
		}
		if (ttBound&boundUpper) != 0 && ttValue <= alpha {
			return ttValue
		}
	}
	if rootNode && ttMove == MoveEmpty {
		ttMove = t.rootHint
	}

	// internal iterative reduction
	if ttMove == MoveEmpty && depth >= 3 {
		depth--
	}

	var rawEval = valueNone
	var corrEval = valueNone
	if !isCheck {
		rawEval = t.evaluator.EvaluateQuick(position)
		corrEval = t.correction.Correct(position, rawEval)
	}
	t.stack[height].staticEval = corrEval

	var improving = false
	if !isCheck {
		var prev = valueNone
		if height >= 2 {
			prev = t.stack[height-2].staticEval
		}
		if prev == valueNone && height >= 4 {
			prev = t.stack[height-4].staticEval
		}
		improving = prev == valueNone || corrEval > prev
	}

	if height+2 <= maxHeight {
		t.stack[height+2].killer1 = MoveEmpty
		t.stack[height+2].killer2 = MoveEmpty
	}
	var child = &t.stack[height+1].position

	if !rootNode && !pvNode && !isCheck && skipMove == MoveEmpty {
		// reverse futility pruning
		if depth <= 4 && corrEval-80*(depth-let(improving, 1, 0)) >= beta {
			return corrEval
		}

		// razoring
		if depth <= 4 && corrEval+300*depth <= alpha {
			var score = t.quiescence(alpha, beta, height, 0)
			if score <= alpha {
				return score
			}
		}

		// null-move pruning
		if depth >= 4 && corrEval >= beta &&
			position.LastMove != MoveEmpty &&
			beta > valueLoss {
			var reduction = 3 + depth/5
			t.MakeMove(MoveEmpty, height)
			var score = -t.alphaBeta(-beta, -(beta - 1), depth-reduction, height+1, MoveEmpty)
			t.UnmakeMove()
			if score >= beta {
				if score >= valueWin {
					score = beta
				}
				return score
			}
		}
	}

	// singular extension: verify the hash move is uniquely best before
	// granting it extra depth. The exclusion makes re-entry impossible.
	var ttMoveIsSingular = false
	if !rootNode && skipMove == MoveEmpty &&
		depth >= 7 && ttHit && ttMove != MoveEmpty &&
		ttDepth >= depth-3 && (ttBound&boundLower) != 0 &&
		height < 2*t.rootDepth &&
		ttValue > valueLoss && ttValue < valueWin {
		var singularBeta = Max(-valueMate, ttValue-depth*4/3)
		var score = t.alphaBeta(singularBeta-1, singularBeta, (depth-1)/2, height, ttMove)
		ttMoveIsSingular = score < singularBeta
	}

	var historyCtx = t.getHistoryContext(height)

	var mp movePicker
	mp.initMain(position, t.stack[height].moveList[:], historyCtx, ttMove,
		t.stack[height].killer1, t.stack[height].killer2)

	var quietsSearched = t.stack[height].quietsSearched[:0]
	var legalMoves = 0
	var quietsSeen = 0
	var best = -valueInfinity
	var bestMove Move
	var oldAlpha = alpha

	for {
		var move = mp.next()
		if move == MoveEmpty {
			break
		}
		if move == skipMove {
			continue
		}
		var quiet = t.isQuiet(position, move)
		if quiet {
			quietsSeen++
		}

		if !rootNode && best > -valueWin && !isCheck {
			// late-move pruning
			if quiet && quietsSeen > options.Lmp(improving, depth) {
				mp.skipQuiets = true
				continue
			}
			// futility pruning
			if quiet && depth <= 8 && corrEval != valueNone &&
				corrEval+100+120*depth <= alpha {
				mp.skipQuiets = true
				continue
			}
			// SEE pruning
			var seeMargin = -100 * depth * depth
			if quiet {
				seeMargin = -20 * depth * depth
			}
			if !SeeGE(position, move, seeMargin) {
				continue
			}
		}

		if !t.MakeMove(move, height) {
			continue
		}
		legalMoves++

		var score int
		switch child.TestSennichite(t.keyHistory, SennichiteLimit) {
		case SennichiteWin:
			// illegal perpetual by the mover
			t.UnmakeMove()
			continue
		case SennichiteDraw:
			score = drawScore(t.nodes)
		default:
			var extension = 0
			if child.IsCheck() {
				extension = 1
			}
			if move == ttMove && ttMoveIsSingular {
				extension = 1
			}
			var newDepth = depth - 1 + extension

			var reduction = 0
			if quiet && depth >= 3 && legalMoves > 1 {
				reduction = options.Lmr(depth, legalMoves)
				if pvNode {
					reduction--
				}
				if isCheck || child.IsCheck() {
					reduction--
				}
				if !improving {
					reduction++
				}
				if move.IsDrop() && SquareDistance(move.To(), child.KingSquare(child.Stm)) <= 2 {
					reduction--
				}
				var history = historyCtx.ReadTotal(position, move)
				reduction -= Max(-2, Min(2, history/5000))
				reduction = Max(0, Min(reduction, newDepth-1))
			}

			score = alpha + 1
			// LMR
			if reduction > 0 {
				score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth-reduction, height+1, MoveEmpty)
			}
			// PVS
			if score > alpha && pvNode && legalMoves > 1 && newDepth > 0 {
				score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth, height+1, MoveEmpty)
			}
			// full window
			if score > alpha {
				score = -t.alphaBeta(-beta, -alpha, newDepth, height+1, MoveEmpty)
			}
		}

		t.UnmakeMove()

		if quiet && len(quietsSearched) < cap(quietsSearched) {
			quietsSearched = append(quietsSearched, move)
		}
		if score > best {
			best = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}

	if legalMoves == 0 {
		if skipMove != MoveEmpty {
			return alpha
		}
		// checkmate and stalemate both lose
		return lossIn(height)
	}
	if best == -valueInfinity {
		// every legal move was an illegal perpetual
		return lossIn(height)
	}

	var bound = boundUpper
	if best >= beta {
		bound = boundLower
	} else if alpha > oldAlpha {
		bound = boundExact
	}

	if alpha > oldAlpha && bestMove != MoveEmpty && t.isQuiet(position, bestMove) {
		historyCtx.Update(position, quietsSearched, bestMove, depth)
		t.updateKiller(bestMove, height)
	}

	if skipMove == MoveEmpty && !isCheck && rawEval != valueNone &&
		(bestMove == MoveEmpty || t.isQuiet(position, bestMove)) &&
		best > valueLoss && best < valueWin &&
		!(bound == boundLower && best <= rawEval) &&
		!(bound == boundUpper && best >= rawEval) {
		t.correction.Update(position, depth, best, rawEval)
	}

	if skipMove == MoveEmpty && !(rootNode && bound == boundUpper) {
		t.engine.transTable.Update(position.Key, depth, best, bound, bestMove, height)
	}

	return best
}

// quiescence expands captures only (all evasions in check); deep in a capture
// chain it narrows further to recaptures on the last target square.
func (t *thread) quiescence(alpha, beta, height, depth int) int {
	t.clearPV(height)
	t.updateSeldepth(height)

	var position = &t.stack[height].position
	if height >= maxHeight {
		return t.evaluator.EvaluateQuick(position)
	}
	if position.IsEnteringKingsWin() {
		return winIn(height)
	}

	var _, ttValue, ttBound, _, ttHit = t.engine.transTable.Read(position.Key, height)
	if ttHit {
		if ttBound == boundExact ||
			ttBound == boundLower && ttValue >= beta ||
			ttBound == boundUpper && ttValue <= alpha {
			return ttValue
		}
	}

	var isCheck = position.IsCheck()
	var best = -valueInfinity
	var corrEval = valueNone
	if !isCheck {
		corrEval = t.correction.Correct(position, t.evaluator.EvaluateQuick(position))
		best = corrEval
		if best > alpha {
			alpha = best
			if alpha >= beta {
				return alpha
			}
		}
	}

	var captureSq = SquareNone
	if !isCheck && depth <= -4 && position.LastMove != MoveEmpty {
		captureSq = position.LastMove.To()
	}

	var mp movePicker
	mp.initQS(position, t.stack[height].moveList[:], captureSq)

	var hasLegalMove = false
	for {
		var move = mp.next()
		if move == MoveEmpty {
			break
		}
		if !isCheck {
			if !SeeGE(position, move, -100) {
				continue
			}
			// marginal captures cannot lift a hopeless stand-pat
			if victim := position.PieceOn(move.To()); victim != PieceNone &&
				corrEval+seeValues[victim.Type()]+150 <= alpha {
				continue
			}
		}
		if !t.MakeMove(move, height) {
			continue
		}
		hasLegalMove = true

		var child = &t.stack[height+1].position
		var score int
		switch child.TestSennichite(t.keyHistory, SennichiteLimit) {
		case SennichiteWin:
			t.UnmakeMove()
			continue
		case SennichiteDraw:
			score = drawScore(t.nodes)
		default:
			score = -t.quiescence(-beta, -alpha, height+1, depth-1)
		}
		t.UnmakeMove()

		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}

	if isCheck && (!hasLegalMove || best == -valueInfinity) {
		return lossIn(height)
	}
	return best
}

func (t *thread) incNodes() {
	t.nodes++
	if t.nodes&255 == 0 {
		var e = t.engine
		e.nodes.Add(256)
		if t.id == 0 && e.limiter.StopHard(e.nodes.Load()) {
			e.stop.Store(true)
		}
		if e.stop.Load() {
			panic(errSearchTimeout)
		}
	}
}

func (t *thread) MakeMove(move Move, height int) bool {
	var position = &t.stack[height].position
	var child = &t.stack[height+1].position
	if move == MoveEmpty {
		position.MakeNullMove(child)
	} else if !position.MakeMove(move, child) {
		return false
	}
	t.evaluator.MakeMove(position, move)
	t.keyHistory = append(t.keyHistory, position.Key)
	t.incNodes()
	return true
}

func (t *thread) UnmakeMove() {
	t.evaluator.UnmakeMove()
	t.keyHistory = t.keyHistory[:len(t.keyHistory)-1]
}

func (t *thread) updateKiller(move Move, height int) {
	if t.stack[height].killer1 != move {
		t.stack[height].killer2 = t.stack[height].killer1
		t.stack[height].killer1 = move
	}
}

func (t *thread) updateSeldepth(height int) {
	if int32(height) > t.seldepth.Load() {
		t.seldepth.Store(int32(height))
	}
}

func (t *thread) clearPV(height int) {
	t.stack[height].pv.clear()
}

func (t *thread) assignPV(height int, move Move) {
	t.stack[height].pv.assign(move, &t.stack[height+1].pv)
}
