package model

import (
	"time"
)

// State of the campaign
type State string

const (
	StateOpen    = State("open")
	StateGoalMet = State("goal-met")
	StateClaimed = State("claimed")
)

type Campaign struct {
	Goal         uint64    `json:"goal"`
	Beneficiary  Address   `json:"beneficiary"`
	TotalPledged uint64    `json:"total_pledged"`
	Escrow       uint64    `json:"escrow"`
	GoalAchieved bool      `json:"goal_achieved"`
	FundsClaimed bool      `json:"funds_claimed"`
	Pledgers     int       `json:"pledgers"`
	CreatedAt    time.Time `json:"created_at"`
	ClaimedAt    time.Time `json:"claimed_at,omitempty"`
}

func NewCampaign(goal uint64, beneficiary Address) *Campaign {
	return &Campaign{
		Goal:        goal,
		Beneficiary: beneficiary,
		CreatedAt:   time.Now().UTC(),
	}
}

func (c *Campaign) State() State {
	switch {
	case c.FundsClaimed:
		return StateClaimed
	case c.GoalAchieved:
		return StateGoalMet
	default:
		return StateOpen
	}
}

// Status is the read-only view of a campaign returned to callers.
type Status struct {
	TotalPledged uint64  `json:"totalPledged"`
	GoalAchieved bool    `json:"goalAchieved"`
	FundsClaimed bool    `json:"fundsClaimed"`
	Goal         uint64  `json:"goal"`
	Beneficiary  Address `json:"beneficiary"`
	State        State   `json:"state"`
	Pledgers     int     `json:"pledgers"`
}

func (c *Campaign) Status() *Status {
	return &Status{
		TotalPledged: c.TotalPledged,
		GoalAchieved: c.GoalAchieved,
		FundsClaimed: c.FundsClaimed,
		Goal:         c.Goal,
		Beneficiary:  c.Beneficiary,
		State:        c.State(),
		Pledgers:     c.Pledgers,
	}
}

type Pledge struct {
	Pledger   Address   `json:"pledger"`
	Amount    uint64    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transfer describes value moved out of escrow.
type Transfer struct {
	From   Address `json:"from"`
	To     Address `json:"to"`
	Amount uint64  `json:"amount"`
}

// EscrowAddress is the source of every transfer made by the ledger.
const EscrowAddress = Address("escrow")
