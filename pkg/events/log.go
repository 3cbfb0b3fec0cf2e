package events

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

// Log writes events to the logger.
type Log struct {
	Logger log.FieldLogger
}

func (l Log) Publish(_ context.Context, event *model.Event) error {
	logger := l.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	logger.WithFields(log.Fields{
		"event":  event.Kind,
		"seq":    event.Seq,
		"caller": event.Caller,
		"amount": event.Amount,
		"total":  event.TotalPledged,
	}).Info("campaign event")

	return nil
}

func (l Log) Close() error {
	return nil
}
