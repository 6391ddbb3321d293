package shogi

import "time"

type Color int8

const (
	Black Color = iota
	White
)

func (c Color) Flip() Color {
	return c ^ 1
}

type PieceType int8

const (
	Pawn PieceType = iota
	Lance
	Knight
	Silver
	Gold
	Bishop
	Rook
	King
	Tokin
	PromotedLance
	PromotedKnight
	PromotedSilver
	Horse
	Dragon
)

const PieceTypeCount = 14

const PieceTypeNone PieceType = -1

var promotions = [PieceTypeCount]PieceType{
	Pawn:   Tokin,
	Lance:  PromotedLance,
	Knight: PromotedKnight,
	Silver: PromotedSilver,
	Gold:   PieceTypeNone,
	Bishop: Horse,
	Rook:   Dragon,
	King:   PieceTypeNone,
	Tokin:  PieceTypeNone, PromotedLance: PieceTypeNone, PromotedKnight: PieceTypeNone,
	PromotedSilver: PieceTypeNone, Horse: PieceTypeNone, Dragon: PieceTypeNone,
}

var demotions = [PieceTypeCount]PieceType{
	Pawn: Pawn, Lance: Lance, Knight: Knight, Silver: Silver, Gold: Gold,
	Bishop: Bishop, Rook: Rook, King: King,
	Tokin: Pawn, PromotedLance: Lance, PromotedKnight: Knight,
	PromotedSilver: Silver, Horse: Bishop, Dragon: Rook,
}

func (pt PieceType) Promote() PieceType {
	return promotions[pt]
}

func (pt PieceType) Unpromote() PieceType {
	return demotions[pt]
}

func (pt PieceType) CanPromote() bool {
	return promotions[pt] != PieceTypeNone
}

func (pt PieceType) IsPromoted() bool {
	return pt >= Tokin
}

// Piece packs a piece type and its color into one byte.
type Piece uint8

const PieceNone Piece = 0xff

func MakePiece(pt PieceType, c Color) Piece {
	return Piece(uint8(pt) | uint8(c)<<4)
}

func (p Piece) Type() PieceType {
	return PieceType(p & 0xf)
}

func (p Piece) Color() Color {
	return Color(p >> 4)
}

// Hand piece slots: the seven droppable piece types.
const (
	HandPawn = iota
	HandLance
	HandKnight
	HandSilver
	HandGold
	HandBishop
	HandRook
	HandCount
)

var handMaxCounts = [HandCount]uint8{18, 4, 4, 4, 4, 2, 2}

var handPieceTypes = [HandCount]PieceType{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook}

func handSlot(pt PieceType) int {
	switch pt {
	case Pawn:
		return HandPawn
	case Lance:
		return HandLance
	case Knight:
		return HandKnight
	case Silver:
		return HandSilver
	case Gold:
		return HandGold
	case Bishop:
		return HandBishop
	case Rook:
		return HandRook
	}
	panic("piece type has no hand slot")
}

// Hand is a per-color bag of captured pieces.
type Hand [HandCount]uint8

func (h *Hand) Count(pt PieceType) int {
	return int(h[handSlot(pt)])
}

func (h *Hand) Empty() bool {
	return *h == Hand{}
}

const MaxMoves = 700

type OrderedMove struct {
	Move Move
	Key  int32
}

type LimitsType struct {
	Infinite  bool
	BlackTime int
	WhiteTime int
	BlackInc  int
	WhiteInc  int
	Byoyomi   int
	MoveTime  int
	Depth     int
	Nodes     int64
	SoftNodes int64
	Mate      int
}

type SearchParams struct {
	Positions []Position
	Limits    LimitsType
	Progress  func(si SearchInfo)
}

type SearchInfo struct {
	Score    UsiScore
	Depth    int
	Seldepth int
	Nodes    int64
	Time     time.Duration
	Hashfull int
	Bound    Bound
	MainLine []Move
}

type Bound int

const (
	BoundNone Bound = iota
	BoundLower
	BoundUpper
)

type UsiScore struct {
	Centipawns int
	Mate       int
}
