package main

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

type statusSource interface {
	Status(ctx context.Context) (*model.Status, error)
}

// Reporter logs a campaign status snapshot, it runs as a cron job.
type Reporter struct {
	ctx    context.Context
	source statusSource
	logger log.FieldLogger
}

func NewReporter(ctx context.Context, source statusSource) *Reporter {
	return &Reporter{ctx: ctx, source: source, logger: log.StandardLogger()}
}

func (r *Reporter) Run() {
	if err := r.report(); err != nil {
		r.logger.WithError(err).Error("failed to report campaign status")
	}
}

func (r *Reporter) report() error {
	status, err := r.source.Status(r.ctx)
	if err != nil {
		return errors.Wrap(err, "failed to query status")
	}

	var progress float64
	if status.Goal > 0 {
		progress = float64(status.TotalPledged) / float64(status.Goal) * 100
	}

	r.logger.WithFields(log.Fields{
		"state":    status.State,
		"total":    status.TotalPledged,
		"goal":     status.Goal,
		"pledgers": status.Pledgers,
		"progress": progress,
	}).Info("campaign status")

	return nil
}
