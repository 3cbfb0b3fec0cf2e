package model

import (
	"time"
)

type EventKind string

const (
	EventPledgeRecorded = EventKind("PledgeRecorded")
	EventGoalAchieved   = EventKind("GoalAchieved")
	EventFundsClaimed   = EventKind("FundsClaimed")
)

// Event is an entry of the campaign event log. Events are written in the
// same transaction as the state change they describe.
type Event struct {
	ID           string    `json:"id"`
	Seq          uint64    `json:"seq"`
	Kind         EventKind `json:"kind"`
	Caller       Address   `json:"caller"`
	Amount       uint64    `json:"amount"`
	TotalPledged uint64    `json:"total_pledged"`
	Time         time.Time `json:"time"`
}
