package db

import (
	"context"
	"time"

	"github.com/go-pg/pg"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

const campaignRowID = 1

// Amounts are stored as BIGINT, values above MaxInt64 can't be represented.
type campaignRow struct {
	tableName struct{} `sql:"campaigns"`

	ID           int `sql:",pk"`
	Goal         int64
	Beneficiary  string
	TotalPledged int64 `sql:",notnull"`
	Escrow       int64 `sql:",notnull"`
	GoalAchieved bool  `sql:",notnull"`
	FundsClaimed bool  `sql:",notnull"`
	Pledgers     int   `sql:",notnull"`
	CreatedAt    time.Time
	ClaimedAt    time.Time
}

type pledgeRow struct {
	tableName struct{} `sql:"pledges"`

	Pledger   string `sql:",pk"`
	Amount    int64  `sql:",notnull"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type eventRow struct {
	tableName struct{} `sql:"events"`

	Seq          int64 `sql:",pk"`
	ID           string
	Kind         string
	Caller       string
	Amount       int64 `sql:",notnull"`
	TotalPledged int64 `sql:",notnull"`
	Time         time.Time
}

type Postgres struct {
	db *pg.DB
}

var _ Storage = (*Postgres)(nil)

func NewPostgres(connectionURL string, ping bool) (*Postgres, error) {
	opts, err := pg.ParseURL(connectionURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse postgres connection url")
	}

	log.Infof("connecting to postgres %s/%s", opts.Addr, opts.Database)

	db := pg.Connect(opts)

	// Check database connectivity
	if ping {
		if _, err := db.ExecOne("SELECT 1"); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "failed to check database connectivity")
		}
	}

	if _, err := db.Exec(pgsql); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to apply database schema")
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	log.Debug("closing database")
	return p.db.Close()
}

func (p *Postgres) Version() (int, error) {
	return CurrentVersion, nil
}

func (p *Postgres) Update(ctx context.Context, fn func(tx Tx) error) error {
	return p.db.WithContext(ctx).RunInTransaction(func(tx *pg.Tx) error {
		return fn(&postgresTx{tx: tx, forUpdate: true})
	})
}

func (p *Postgres) View(ctx context.Context, fn func(tx Tx) error) error {
	return p.db.WithContext(ctx).RunInTransaction(func(tx *pg.Tx) error {
		if _, err := tx.Exec("SET TRANSACTION ISOLATION LEVEL REPEATABLE READ READ ONLY"); err != nil {
			return errors.Wrap(err, "failed to start read-only transaction")
		}

		return fn(&postgresTx{tx: tx})
	})
}

func (p *Postgres) WalkPledges(ctx context.Context, cb func(pledge *model.Pledge) error) error {
	var rows []pledgeRow
	if err := p.db.WithContext(ctx).Model(&rows).Order("pledger ASC").Select(); err != nil {
		return errors.Wrap(err, "failed to query pledges")
	}

	for i := range rows {
		if err := cb(rows[i].toModel()); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) WalkEvents(ctx context.Context, since uint64, cb func(event *model.Event) error) error {
	var rows []eventRow
	if err := p.db.WithContext(ctx).Model(&rows).Where("seq > ?", int64(since)).Order("seq ASC").Select(); err != nil {
		return errors.Wrap(err, "failed to query events")
	}

	for i := range rows {
		if err := cb(rows[i].toModel()); err != nil {
			return err
		}
	}

	return nil
}

type postgresTx struct {
	tx        *pg.Tx
	forUpdate bool
}

func (t *postgresTx) GetCampaign() (*model.Campaign, error) {
	row := &campaignRow{}
	query := t.tx.Model(row).Where("id = ?", campaignRowID)
	if t.forUpdate {
		query = query.For("UPDATE")
	}

	if err := query.Select(); err != nil {
		if err == pg.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to query campaign")
	}

	return &model.Campaign{
		Goal:         uint64(row.Goal),
		Beneficiary:  model.Address(row.Beneficiary),
		TotalPledged: uint64(row.TotalPledged),
		Escrow:       uint64(row.Escrow),
		GoalAchieved: row.GoalAchieved,
		FundsClaimed: row.FundsClaimed,
		Pledgers:     row.Pledgers,
		CreatedAt:    row.CreatedAt,
		ClaimedAt:    row.ClaimedAt,
	}, nil
}

func (t *postgresTx) PutCampaign(campaign *model.Campaign) error {
	row := &campaignRow{
		ID:           campaignRowID,
		Goal:         int64(campaign.Goal),
		Beneficiary:  string(campaign.Beneficiary),
		TotalPledged: int64(campaign.TotalPledged),
		Escrow:       int64(campaign.Escrow),
		GoalAchieved: campaign.GoalAchieved,
		FundsClaimed: campaign.FundsClaimed,
		Pledgers:     campaign.Pledgers,
		CreatedAt:    campaign.CreatedAt,
		ClaimedAt:    campaign.ClaimedAt,
	}

	_, err := t.tx.Model(row).
		OnConflict("(id) DO UPDATE").
		Set("total_pledged = EXCLUDED.total_pledged").
		Set("escrow = EXCLUDED.escrow").
		Set("goal_achieved = EXCLUDED.goal_achieved").
		Set("funds_claimed = EXCLUDED.funds_claimed").
		Set("pledgers = EXCLUDED.pledgers").
		Set("claimed_at = EXCLUDED.claimed_at").
		Insert()

	return errors.Wrap(err, "failed to save campaign")
}

func (t *postgresTx) GetPledge(pledger model.Address) (*model.Pledge, error) {
	row := &pledgeRow{}
	if err := t.tx.Model(row).Where("pledger = ?", string(pledger)).Select(); err != nil {
		if err == pg.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to query pledge of %q", pledger)
	}

	return row.toModel(), nil
}

func (t *postgresTx) PutPledge(pledge *model.Pledge) error {
	if pledge.Pledger == "" {
		return errors.New("can't save pledge without pledger")
	}

	row := &pledgeRow{
		Pledger:   string(pledge.Pledger),
		Amount:    int64(pledge.Amount),
		CreatedAt: pledge.CreatedAt,
		UpdatedAt: pledge.UpdatedAt,
	}

	_, err := t.tx.Model(row).
		OnConflict("(pledger) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Insert()

	return errors.Wrapf(err, "failed to save pledge of %q", pledge.Pledger)
}

func (t *postgresTx) AddEvent(event *model.Event) error {
	row := &eventRow{
		ID:           event.ID,
		Kind:         string(event.Kind),
		Caller:       string(event.Caller),
		Amount:       int64(event.Amount),
		TotalPledged: int64(event.TotalPledged),
		Time:         event.Time,
	}

	if _, err := t.tx.Model(row).Returning("seq").Insert(); err != nil {
		return errors.Wrapf(err, "failed to append %s event", event.Kind)
	}

	event.Seq = uint64(row.Seq)
	return nil
}

func (r *pledgeRow) toModel() *model.Pledge {
	return &model.Pledge{
		Pledger:   model.Address(r.Pledger),
		Amount:    uint64(r.Amount),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *eventRow) toModel() *model.Event {
	return &model.Event{
		ID:           r.ID,
		Seq:          uint64(r.Seq),
		Kind:         model.EventKind(r.Kind),
		Caller:       model.Address(r.Caller),
		Amount:       uint64(r.Amount),
		TotalPledged: uint64(r.TotalPledged),
		Time:         r.Time,
	}
}
