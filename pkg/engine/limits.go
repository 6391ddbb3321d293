package engine

import (
	"time"

	. "github.com/mzaitsev/tokin/pkg/shogi"
)

// Limiter decides when a search must end. StopSoft is consulted between
// iterations and may stop early; StopHard is the in-search deadline.
type Limiter interface {
	Update(depth int, bestMove Move)
	StopSoft(nodes int64) bool
	StopHard(nodes int64) bool
}

type compoundLimiter struct {
	limiters []Limiter
}

func (c *compoundLimiter) Update(depth int, bestMove Move) {
	for _, l := range c.limiters {
		l.Update(depth, bestMove)
	}
}

func (c *compoundLimiter) StopSoft(nodes int64) bool {
	for _, l := range c.limiters {
		if l.StopSoft(nodes) {
			return true
		}
	}
	return false
}

func (c *compoundLimiter) StopHard(nodes int64) bool {
	for _, l := range c.limiters {
		if l.StopHard(nodes) {
			return true
		}
	}
	return false
}

type nodeLimiter struct {
	maxNodes int64
}

func (l *nodeLimiter) Update(depth int, bestMove Move) {}

func (l *nodeLimiter) StopSoft(nodes int64) bool {
	return l.StopHard(nodes)
}

func (l *nodeLimiter) StopHard(nodes int64) bool {
	return nodes >= l.maxNodes
}

type softNodeLimiter struct {
	optNodes int64
	maxNodes int64
}

func (l *softNodeLimiter) Update(depth int, bestMove Move) {}

func (l *softNodeLimiter) StopSoft(nodes int64) bool {
	return nodes >= l.optNodes
}

func (l *softNodeLimiter) StopHard(nodes int64) bool {
	return nodes >= l.maxNodes
}

type depthLimiter struct {
	maxDepth int
	reached  bool
}

func (l *depthLimiter) Update(depth int, bestMove Move) {
	if depth >= l.maxDepth {
		l.reached = true
	}
}

func (l *depthLimiter) StopSoft(nodes int64) bool {
	return l.reached
}

func (l *depthLimiter) StopHard(nodes int64) bool {
	return false
}

type moveTimeLimiter struct {
	start   time.Time
	maxTime time.Duration
}

func (l *moveTimeLimiter) Update(depth int, bestMove Move) {}

func (l *moveTimeLimiter) StopSoft(nodes int64) bool {
	return time.Since(l.start) >= l.maxTime
}

func (l *moveTimeLimiter) StopHard(nodes int64) bool {
	return l.StopSoft(nodes)
}

// timeManager derives a soft/hard pair from the clock and shrinks the soft
// limit while the best move stays stable across iterations.
type timeManager struct {
	start     time.Time
	optTime   time.Duration
	maxTime   time.Duration
	lastBest  Move
	stability int
}

const moveOverhead = 50 * time.Millisecond

func newTimeManager(start time.Time, limits LimitsType, stm Color) *timeManager {
	var remaining, inc time.Duration
	if stm == Black {
		remaining = time.Duration(limits.BlackTime) * time.Millisecond
		inc = time.Duration(limits.BlackInc) * time.Millisecond
	} else {
		remaining = time.Duration(limits.WhiteTime) * time.Millisecond
		inc = time.Duration(limits.WhiteInc) * time.Millisecond
	}
	var byoyomi = time.Duration(limits.Byoyomi) * time.Millisecond

	var budget = remaining + byoyomi - moveOverhead
	if budget < time.Millisecond {
		budget = time.Millisecond
	}
	var maxTime = remaining/20 + inc/2 + byoyomi*9/10
	if maxTime > budget {
		maxTime = budget
	}
	if maxTime < time.Millisecond {
		maxTime = time.Millisecond
	}
	return &timeManager{
		start:   start,
		optTime: maxTime * 6 / 10,
		maxTime: maxTime,
	}
}

func (l *timeManager) Update(depth int, bestMove Move) {
	if bestMove == l.lastBest {
		if l.stability < 8 {
			l.stability++
		}
	} else {
		l.stability = 0
		l.lastBest = bestMove
	}
}

func (l *timeManager) StopSoft(nodes int64) bool {
	var scale = time.Duration(14 - Min(l.stability, 6))
	return time.Since(l.start) >= l.optTime*scale/14
}

func (l *timeManager) StopHard(nodes int64) bool {
	return time.Since(l.start) >= l.maxTime
}

// NewLimiter composes the limiters implied by the go-command flags.
func NewLimiter(limits LimitsType, stm Color, start time.Time) Limiter {
	var c = &compoundLimiter{}
	if limits.Infinite {
		return c
	}
	if limits.Depth > 0 {
		c.limiters = append(c.limiters, &depthLimiter{maxDepth: limits.Depth})
	}
	if limits.Mate > 0 {
		c.limiters = append(c.limiters, &depthLimiter{maxDepth: 2*limits.Mate - 1})
	}
	if limits.SoftNodes > 0 {
		var maxNodes = limits.Nodes
		if maxNodes <= 0 {
			maxNodes = limits.SoftNodes * 16
		}
		c.limiters = append(c.limiters, &softNodeLimiter{
			optNodes: limits.SoftNodes,
			maxNodes: maxNodes,
		})
	} else if limits.Nodes > 0 {
		c.limiters = append(c.limiters, &nodeLimiter{maxNodes: limits.Nodes})
	}
	if limits.MoveTime > 0 {
		c.limiters = append(c.limiters, &moveTimeLimiter{
			start:   start,
			maxTime: time.Duration(limits.MoveTime)*time.Millisecond - moveOverhead/2,
		})
	}
	if limits.BlackTime > 0 || limits.WhiteTime > 0 || limits.Byoyomi > 0 {
		c.limiters = append(c.limiters, newTimeManager(start, limits, stm))
	}
	return c
}
