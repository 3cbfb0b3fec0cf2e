package db

import (
	"context"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

type Version int

const (
	CurrentVersion = 1
)

// Tx is a view of the store inside a single transaction.
type Tx interface {
	// GetCampaign returns model.ErrNotFound until the campaign is created
	GetCampaign() (*model.Campaign, error)
	PutCampaign(campaign *model.Campaign) error

	// GetPledge returns model.ErrNotFound if the address never pledged
	GetPledge(pledger model.Address) (*model.Pledge, error)
	PutPledge(pledge *model.Pledge) error

	// AddEvent assigns the next sequence number to the event and appends it to the log
	AddEvent(event *model.Event) error
}

type Storage interface {
	Close() error
	Version() (int, error)

	// Update runs fn in a read-write transaction, changes are discarded if fn fails
	Update(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn in a read-only transaction
	View(ctx context.Context, fn func(tx Tx) error) error

	// WalkPledges iterates over all pledge records
	WalkPledges(ctx context.Context, cb func(pledge *model.Pledge) error) error

	// WalkEvents iterates over events with a sequence number greater than since, in order
	WalkEvents(ctx context.Context, since uint64, cb func(event *model.Event) error) error
}

// Open creates the storage backend selected by the configuration
func Open(config *Config) (Storage, error) {
	if config.PostgresURL != "" {
		return NewPostgres(config.PostgresURL, true)
	}

	return NewBadger(config)
}
