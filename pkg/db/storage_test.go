package db

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

var testCtx = context.TODO()

const (
	wallet1 = model.Address("ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG")
	wallet2 = model.Address("ST2JHG361ZXG51QTKY2NQCVBPPRRE2KZB1HR05NNC")
)

func runStorageTests(t *testing.T, createFn func(t *testing.T) Storage) {
	t.Run("campaign not found", func(t *testing.T) {
		stor := createFn(t)
		defer stor.Close()

		err := stor.View(testCtx, func(tx Tx) error {
			_, err := tx.GetCampaign()
			return err
		})
		assert.Equal(t, model.ErrNotFound, errors.Cause(err))
	})

	t.Run("put and get campaign", func(t *testing.T) {
		stor := createFn(t)
		defer stor.Close()

		campaign := model.NewCampaign(model.DefaultGoal, model.DefaultBeneficiary)
		campaign.CreatedAt = campaign.CreatedAt.Truncate(time.Millisecond)
		campaign.TotalPledged = 10
		campaign.Escrow = 10
		campaign.Pledgers = 1

		err := stor.Update(testCtx, func(tx Tx) error {
			return tx.PutCampaign(campaign)
		})
		require.NoError(t, err)

		var actual *model.Campaign
		err = stor.View(testCtx, func(tx Tx) (err error) {
			actual, err = tx.GetCampaign()
			return
		})
		require.NoError(t, err)
		assert.Equal(t, campaign.Goal, actual.Goal)
		assert.Equal(t, campaign.Beneficiary, actual.Beneficiary)
		assert.EqualValues(t, 10, actual.TotalPledged)
		assert.EqualValues(t, 10, actual.Escrow)
		assert.Equal(t, 1, actual.Pledgers)
		assert.True(t, campaign.CreatedAt.Equal(actual.CreatedAt))
	})

	t.Run("failed update is rolled back", func(t *testing.T) {
		stor := createFn(t)
		defer stor.Close()

		boom := errors.New("boom")
		err := stor.Update(testCtx, func(tx Tx) error {
			if err := tx.PutPledge(&model.Pledge{Pledger: wallet1, Amount: 5}); err != nil {
				return err
			}
			return boom
		})
		assert.Equal(t, boom, errors.Cause(err))

		err = stor.View(testCtx, func(tx Tx) error {
			_, err := tx.GetPledge(wallet1)
			return err
		})
		assert.Equal(t, model.ErrNotFound, errors.Cause(err))
	})

	t.Run("walk pledges", func(t *testing.T) {
		stor := createFn(t)
		defer stor.Close()

		err := stor.Update(testCtx, func(tx Tx) error {
			if err := tx.PutPledge(&model.Pledge{Pledger: wallet1, Amount: 60}); err != nil {
				return err
			}
			return tx.PutPledge(&model.Pledge{Pledger: wallet2, Amount: 40})
		})
		require.NoError(t, err)

		// Overwrite keeps a single record per pledger
		err = stor.Update(testCtx, func(tx Tx) error {
			return tx.PutPledge(&model.Pledge{Pledger: wallet1, Amount: 70})
		})
		require.NoError(t, err)

		amounts := map[model.Address]uint64{}
		err = stor.WalkPledges(testCtx, func(pledge *model.Pledge) error {
			amounts[pledge.Pledger] = pledge.Amount
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, map[model.Address]uint64{wallet1: 70, wallet2: 40}, amounts)
	})

	t.Run("events", func(t *testing.T) {
		stor := createFn(t)
		defer stor.Close()

		for i := 0; i < 3; i++ {
			event := &model.Event{
				ID:     string(rune('a' + i)),
				Kind:   model.EventPledgeRecorded,
				Caller: wallet1,
				Amount: uint64(i + 1),
				Time:   time.Now().UTC(),
			}

			err := stor.Update(testCtx, func(tx Tx) error {
				return tx.AddEvent(event)
			})
			require.NoError(t, err)
			assert.EqualValues(t, i+1, event.Seq)
		}

		var seqs []uint64
		err := stor.WalkEvents(testCtx, 0, func(event *model.Event) error {
			seqs = append(seqs, event.Seq)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{1, 2, 3}, seqs)

		seqs = nil
		err = stor.WalkEvents(testCtx, 2, func(event *model.Event) error {
			seqs = append(seqs, event.Seq)
			assert.EqualValues(t, 3, event.Amount)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{3}, seqs)
	})
}
