package events

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

// Publisher delivers committed ledger events to external subscribers.
type Publisher interface {
	Publish(ctx context.Context, event *model.Event) error
	Close() error
}

// Multi fans out every event to all publishers, errors are combined.
type Multi []Publisher

var _ Publisher = Multi(nil)

func (m Multi) Publish(ctx context.Context, event *model.Event) error {
	var result *multierror.Error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func (m Multi) Close() error {
	var result *multierror.Error
	for _, p := range m {
		if err := p.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
