package model

const (
	// DefaultGoal is 100 STX expressed in micro-units.
	DefaultGoal uint64 = 100000000
	// DefaultBeneficiary is wallet_1 of the default devnet.
	DefaultBeneficiary = Address("ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")

	DefaultPort          = 8080
	DefaultHookTimeout   = 60
	DefaultRedisPrefix   = "pledged"
	DefaultEventsPerPage = 100
)
