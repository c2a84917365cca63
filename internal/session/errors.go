package session

import "errors"

// Sentinel errors, compared with errors.Is. The API layer maps these onto
// HTTP statuses: validation errors to 400, not-found to 404, state
// conflicts to 409.
var (
	// ErrSessionNotFound is returned when no session matches the given code.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRoundNotFound is returned when no round matches the given ID.
	ErrRoundNotFound = errors.New("round not found")

	// ErrPlayerNotFound is returned when no player matches the given ID.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrSessionFull is returned when joining would exceed market_size.
	ErrSessionFull = errors.New("session is full")

	// ErrRoundNotActive is returned when a submission targets a round that
	// is waiting, completed, or cancelled.
	ErrRoundNotActive = errors.New("round is not active")

	// ErrInvalidTransition is returned when a lifecycle call is not legal
	// from the current session or round status.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrWrongRole is returned when a buyer submits an ask or a seller a bid.
	ErrWrongRole = errors.New("action not permitted for player role")

	// ErrPriceBound is returned when a bid exceeds the buyer's valuation or
	// an ask undercuts the seller's cost.
	ErrPriceBound = errors.New("price violates valuation or cost bound")

	// ErrInvalidPasscode is returned when the admin passcode does not match.
	ErrInvalidPasscode = errors.New("invalid passcode")
)
