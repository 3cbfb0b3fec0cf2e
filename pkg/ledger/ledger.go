// Package ledger implements the campaign state machine: pledges accumulate
// in escrow until the goal is reached, then the beneficiary may claim the
// whole escrow exactly once.
package ledger

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ventu-io/go-shortid"

	"github.com/pledgeforprogress/pledged/pkg/db"
	"github.com/pledgeforprogress/pledged/pkg/events"
	"github.com/pledgeforprogress/pledged/pkg/model"
)

// maxTotal keeps totals representable in every storage backend.
const maxTotal = math.MaxInt64

type Config struct {
	// Goal is the amount in micro-units that makes the campaign claimable
	Goal uint64 `toml:"goal"`
	// Beneficiary is the only address allowed to claim funds
	Beneficiary model.Address `toml:"beneficiary"`
}

type Ledger struct {
	// mu serializes all state changes, reads rely on storage snapshots
	mu        sync.Mutex
	storage   db.Storage
	publisher events.Publisher
	ids       *shortid.Shortid
	now       func() time.Time
}

// New opens the campaign in the given storage, creating it on first use.
// A stored campaign with a different goal or beneficiary is rejected.
func New(ctx context.Context, storage db.Storage, publisher events.Publisher, cfg Config) (*Ledger, error) {
	if cfg.Goal == 0 {
		return nil, errors.New("campaign goal must be positive")
	}

	if _, err := model.ParseAddress(string(cfg.Beneficiary)); err != nil {
		return nil, errors.Wrapf(err, "invalid beneficiary %q", cfg.Beneficiary)
	}

	ids, err := shortid.New(1, shortid.DefaultABC, uint64(time.Now().UnixNano()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create id generator")
	}

	if publisher == nil {
		publisher = events.Multi(nil)
	}

	l := &Ledger{
		storage:   storage,
		publisher: publisher,
		ids:       ids,
		now:       func() time.Time { return time.Now().UTC() },
	}

	if err := storage.Update(ctx, func(tx db.Tx) error {
		campaign, err := tx.GetCampaign()
		if err == model.ErrNotFound {
			log.WithFields(log.Fields{
				"goal":        cfg.Goal,
				"beneficiary": cfg.Beneficiary,
			}).Info("creating campaign")

			campaign = model.NewCampaign(cfg.Goal, cfg.Beneficiary)
			campaign.CreatedAt = l.now()
			return tx.PutCampaign(campaign)
		} else if err != nil {
			return err
		}

		if campaign.Goal != cfg.Goal || campaign.Beneficiary != cfg.Beneficiary {
			return errors.Wrapf(model.ErrCampaignMismatch, "stored goal %d, beneficiary %q", campaign.Goal, campaign.Beneficiary)
		}

		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "failed to initialize campaign")
	}

	return l, nil
}

// Pledge adds amount to the caller's pledge record and to the escrow.
func (l *Ledger) Pledge(ctx context.Context, caller model.Address, amount uint64) (*model.Pledge, error) {
	if amount == 0 || amount > maxTotal {
		return nil, model.ErrInvalidAmount
	}

	if _, err := model.ParseAddress(string(caller)); err != nil {
		return nil, err
	}

	var pledge *model.Pledge

	err := l.commit(ctx, func(tx db.Tx) ([]*model.Event, error) {
		campaign, err := tx.GetCampaign()
		if err != nil {
			return nil, err
		}

		if campaign.FundsClaimed {
			return nil, model.ErrCampaignClosed
		}

		if campaign.TotalPledged > maxTotal-amount {
			return nil, model.ErrInvalidAmount
		}

		now := l.now()

		pledge, err = tx.GetPledge(caller)
		if err == model.ErrNotFound {
			pledge = &model.Pledge{Pledger: caller, CreatedAt: now}
			campaign.Pledgers++
		} else if err != nil {
			return nil, err
		}

		pledge.Amount += amount
		pledge.UpdatedAt = now

		campaign.TotalPledged += amount
		campaign.Escrow += amount

		wasAchieved := campaign.GoalAchieved
		if campaign.TotalPledged >= campaign.Goal {
			campaign.GoalAchieved = true
		}

		if err := tx.PutPledge(pledge); err != nil {
			return nil, err
		}

		if err := tx.PutCampaign(campaign); err != nil {
			return nil, err
		}

		emitted := []*model.Event{l.newEvent(model.EventPledgeRecorded, caller, amount, campaign)}
		if campaign.GoalAchieved && !wasAchieved {
			emitted = append(emitted, l.newEvent(model.EventGoalAchieved, caller, amount, campaign))
		}

		return emitted, nil
	})

	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"pledger": caller,
		"amount":  amount,
		"record":  pledge.Amount,
	}).Debug("pledge recorded")

	return pledge, nil
}

// ClaimFunds moves the whole escrow to the beneficiary.
func (l *Ledger) ClaimFunds(ctx context.Context, caller model.Address) (*model.Transfer, error) {
	var transfer *model.Transfer

	err := l.commit(ctx, func(tx db.Tx) ([]*model.Event, error) {
		campaign, err := tx.GetCampaign()
		if err != nil {
			return nil, err
		}

		if caller != campaign.Beneficiary {
			return nil, model.ErrUnauthorized
		}

		if !campaign.GoalAchieved {
			return nil, model.ErrGoalNotMet
		}

		if campaign.FundsClaimed {
			return nil, model.ErrAlreadyClaimed
		}

		transfer = &model.Transfer{
			From:   model.EscrowAddress,
			To:     campaign.Beneficiary,
			Amount: campaign.Escrow,
		}

		campaign.Escrow = 0
		campaign.FundsClaimed = true
		campaign.ClaimedAt = l.now()

		if err := tx.PutCampaign(campaign); err != nil {
			return nil, err
		}

		return []*model.Event{l.newEvent(model.EventFundsClaimed, caller, transfer.Amount, campaign)}, nil
	})

	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"beneficiary": transfer.To,
		"amount":      transfer.Amount,
	}).Info("funds claimed")

	return transfer, nil
}

func (l *Ledger) Status(ctx context.Context) (*model.Status, error) {
	var status *model.Status
	err := l.storage.View(ctx, func(tx db.Tx) error {
		campaign, err := tx.GetCampaign()
		if err != nil {
			return err
		}

		status = campaign.Status()
		return nil
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed to query campaign status")
	}

	return status, nil
}

// PledgeAmount returns the total pledged by address, or 0 if it never pledged.
func (l *Ledger) PledgeAmount(ctx context.Context, address model.Address) (uint64, error) {
	var amount uint64
	err := l.storage.View(ctx, func(tx db.Tx) error {
		pledge, err := tx.GetPledge(address)
		if err == model.ErrNotFound {
			return nil
		} else if err != nil {
			return err
		}

		amount = pledge.Amount
		return nil
	})

	if err != nil {
		return 0, errors.Wrapf(err, "failed to query pledge of %q", address)
	}

	return amount, nil
}

// Pledges iterates over all pledge records.
func (l *Ledger) Pledges(ctx context.Context, cb func(pledge *model.Pledge) error) error {
	return l.storage.WalkPledges(ctx, cb)
}

// Events iterates over the event log starting after the since sequence number.
func (l *Ledger) Events(ctx context.Context, since uint64, cb func(event *model.Event) error) error {
	return l.storage.WalkEvents(ctx, since, cb)
}

// commit runs fn in a storage transaction together with the events it
// emits. Events are handed to the publisher before mu is released, so
// subscribers receive them in seq order.
func (l *Ledger) commit(ctx context.Context, fn func(tx db.Tx) ([]*model.Event, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var emitted []*model.Event
	err := l.storage.Update(ctx, func(tx db.Tx) error {
		list, err := fn(tx)
		if err != nil {
			return err
		}

		if err := addEvents(tx, list); err != nil {
			return err
		}

		emitted = list
		return nil
	})

	if err != nil {
		return err
	}

	l.publish(context.WithoutCancel(ctx), emitted)
	return nil
}

func (l *Ledger) newEvent(kind model.EventKind, caller model.Address, amount uint64, campaign *model.Campaign) *model.Event {
	return &model.Event{
		ID:           l.ids.MustGenerate(),
		Kind:         kind,
		Caller:       caller,
		Amount:       amount,
		TotalPledged: campaign.TotalPledged,
		Time:         l.now(),
	}
}

func addEvents(tx db.Tx, list []*model.Event) error {
	for _, event := range list {
		if err := tx.AddEvent(event); err != nil {
			return errors.Wrapf(err, "failed to save %s event", event.Kind)
		}
	}

	return nil
}

// publish is best effort, the events are already part of the committed log.
// The context is detached from the caller so a dropped request does not
// interrupt subscribers.
func (l *Ledger) publish(ctx context.Context, list []*model.Event) {
	for _, event := range list {
		if err := l.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).WithField("seq", event.Seq).Errorf("failed to publish %s event", event.Kind)
		}
	}
}
