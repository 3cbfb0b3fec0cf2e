package model

import (
	"github.com/pkg/errors"
)

var (
	ErrAlreadyExists = errors.New("object already exists")
	ErrNotFound      = errors.New("not found")

	ErrUnauthorized     = errors.New("caller is not the beneficiary")
	ErrGoalNotMet       = errors.New("campaign goal is not met")
	ErrAlreadyClaimed   = errors.New("funds are already claimed")
	ErrInvalidAmount    = errors.New("invalid pledge amount")
	ErrCampaignClosed   = errors.New("campaign is closed")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrCampaignMismatch = errors.New("stored campaign does not match configuration")
)

// Code returns a short tag for a domain error, or an empty string for
// anything that is not one.
func Code(err error) string {
	switch errors.Cause(err) {
	case ErrUnauthorized:
		return "unauthorized"
	case ErrGoalNotMet:
		return "goal-not-met"
	case ErrAlreadyClaimed:
		return "already-claimed"
	case ErrInvalidAmount:
		return "invalid-amount"
	case ErrCampaignClosed:
		return "campaign-closed"
	case ErrInvalidAddress:
		return "invalid-address"
	case ErrNotFound:
		return "not-found"
	default:
		return ""
	}
}
