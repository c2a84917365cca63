package engine

// GameType identifies one of the supported experiment games. The set is
// closed: dispatch tables in this package and in the bots package key on it.
type GameType string

const (
	DoubleAuction     GameType = "double_auction"
	Cournot           GameType = "cournot"
	Bertrand          GameType = "bertrand"
	PublicGoods       GameType = "public_goods"
	Ultimatum         GameType = "ultimatum"
	TrustGame         GameType = "trust"
	PostedOffer       GameType = "posted_offer"
	DiscoveryProcess  GameType = "discovery_process"
	ContestableMarket GameType = "contestable_market"
)

// Category groups game types by how actions are collected within a round.
type Category int

const (
	CategoryDoubleAuction Category = iota // continuous bid/ask submission
	CategorySimultaneous                  // one action per player per round
	CategorySequential                    // paired first/second mover
	CategorySpecialized                   // custom phase choreography
)

func (c Category) String() string {
	switch c {
	case CategoryDoubleAuction:
		return "double_auction"
	case CategorySimultaneous:
		return "simultaneous"
	case CategorySequential:
		return "sequential"
	case CategorySpecialized:
		return "specialized"
	default:
		return "unknown"
	}
}

// Category returns the action-collection category for a game type.
func (g GameType) Category() Category {
	switch g {
	case DoubleAuction:
		return CategoryDoubleAuction
	case Ultimatum, TrustGame:
		return CategorySequential
	case PostedOffer, DiscoveryProcess, ContestableMarket:
		return CategorySpecialized
	default:
		return CategorySimultaneous
	}
}

// Valid reports whether g is a member of the closed game-type set.
func (g GameType) Valid() bool {
	switch g {
	case DoubleAuction, Cournot, Bertrand, PublicGoods, Ultimatum,
		TrustGame, PostedOffer, DiscoveryProcess, ContestableMarket:
		return true
	}
	return false
}

// ActionKind names the payload variant carried by an Action.
type ActionKind string

const (
	KindQuantity     ActionKind = "quantity"     // Cournot output choice
	KindPrice        ActionKind = "price"        // Bertrand / posted-offer price
	KindContribution ActionKind = "contribution" // public goods contribution
	KindOffer        ActionKind = "offer"        // ultimatum proposer split
	KindResponse     ActionKind = "response"     // ultimatum responder accept/reject
	KindTransfer     ActionKind = "transfer"     // trust game first mover send
	KindReturn       ActionKind = "return"       // trust game trustee return
	KindBuy          ActionKind = "buy"          // posted-offer purchase
)

// Action is the narrow common envelope for all non-double-auction game
// actions. Kind selects the variant; Amount carries the numeric payload
// and Accept the boolean one. Engines validate the envelope at their
// boundary and reject kinds they do not understand.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Amount float64    `json:"amount,omitempty"`
	Accept bool       `json:"accept,omitempty"`
}

// Result is the outcome of handing an action to a game engine.
// Success=false is a normal negative result, not an error.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Ok is the successful Result.
func Ok() Result { return Result{Success: true} }

// Fail builds a failed Result with the given reason.
func Fail(reason string) Result { return Result{Success: false, Error: reason} }

// Engine is the contract the round core depends on for non-double-auction
// games. Implementations own their per-round state keyed by round ID and
// must be safe for concurrent use.
type Engine interface {
	HandleAction(roundID, playerID string, act Action) Result
}

// Scorer is implemented by engines that compute per-round profits once a
// round is over. The returned map is keyed by player ID; players absent
// from the map earned nothing this round.
type Scorer interface {
	ScoreRound(roundID string) map[string]float64
}
