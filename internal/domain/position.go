package domain

import "time"

// Position is an outstanding wager on one side of a match. At most one
// Position exists per match ID at any time.
type Position struct {
	MatchID    int64     `json:"match_id"`
	Side       int       `json:"side"` // 0 or 1
	Amount     float64   `json:"amount"`
	TimePlaced time.Time `json:"time_placed"`
}

// ActionKind is the outcome of a reconciliation decision.
type ActionKind string

const (
	ActionNoOp    ActionKind = "no-op"
	ActionOpen    ActionKind = "open"
	ActionClose   ActionKind = "close"
	ActionReplace ActionKind = "replace" // close then open
)

// Action is the reconciliation policy's verdict for one valuated match.
// Side and Amount are meaningful only for open and replace.
type Action struct {
	Kind   ActionKind
	Side   int
	Amount float64
}
