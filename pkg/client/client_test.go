package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pledgeforprogress/pledged/pkg/db"
	"github.com/pledgeforprogress/pledged/pkg/handler"
	"github.com/pledgeforprogress/pledged/pkg/ledger"
	"github.com/pledgeforprogress/pledged/pkg/model"
)

var testCtx = context.TODO()

const (
	beneficiary = model.Address("ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM")
	wallet1     = model.Address("ST2CY5V39NHDPWSXMW9QDT3HC3GD6Q6XX4CFRK9AG")
	wallet2     = model.Address("ST2JHG361ZXG51QTKY2NQCVBPPRRE2KZB1HR05NNC")
)

func newServer(t *testing.T, opts handler.Opts) *httptest.Server {
	gin.SetMode(gin.TestMode)

	stor, err := db.NewBadger(&db.Config{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = stor.Close() })

	l, err := ledger.New(testCtx, stor, nil, ledger.Config{Goal: model.DefaultGoal, Beneficiary: beneficiary})
	require.NoError(t, err)

	srv := httptest.NewServer(handler.New(l, opts))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Campaign(t *testing.T) {
	srv := newServer(t, handler.Opts{})

	c1 := New(srv.URL, WithCaller(wallet1))
	c2 := New(srv.URL+"/", WithCaller(wallet2))
	owner := New(srv.URL, WithCaller(beneficiary))

	res, err := c1.Pledge(testCtx, 10000000)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.EqualValues(t, 10000000, res.Amount)

	status, err := c1.Status(testCtx)
	require.NoError(t, err)
	assert.EqualValues(t, 10000000, status.TotalPledged)
	assert.False(t, status.GoalAchieved)

	_, err = owner.ClaimFunds(testCtx)
	assert.Equal(t, model.ErrGoalNotMet, errors.Cause(err))

	_, err = c1.Pledge(testCtx, 50000000)
	require.NoError(t, err)
	_, err = c2.Pledge(testCtx, 40000000)
	require.NoError(t, err)

	_, err = c1.ClaimFunds(testCtx)
	assert.Equal(t, model.ErrUnauthorized, errors.Cause(err))

	claim, err := owner.ClaimFunds(testCtx)
	require.NoError(t, err)
	assert.True(t, claim.OK)
	assert.EqualValues(t, 100000000, claim.Amount)
	assert.Equal(t, beneficiary, claim.Beneficiary)

	amount, err := owner.PledgeAmount(testCtx, wallet1)
	require.NoError(t, err)
	assert.EqualValues(t, 60000000, amount)

	list, err := owner.Events(testCtx, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, model.EventFundsClaimed, list[4].Kind)

	list, err = owner.Events(testCtx, 0, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	pledges, err := owner.Pledges(testCtx)
	require.NoError(t, err)
	require.Len(t, pledges, 2)
	assert.Equal(t, wallet1, pledges[0].Pledger)
	assert.EqualValues(t, 60000000, pledges[0].Amount)
	assert.Equal(t, wallet2, pledges[1].Pledger)
	assert.EqualValues(t, 40000000, pledges[1].Amount)
}

func TestClient_Errors(t *testing.T) {
	srv := newServer(t, handler.Opts{})

	anonymous := New(srv.URL)
	_, err := anonymous.Pledge(testCtx, 1)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "unauthenticated", apiErr.Code)

	_, err = New(srv.URL, WithCaller(wallet1)).Pledge(testCtx, 0)
	assert.Equal(t, model.ErrInvalidAmount, errors.Cause(err))
}

func TestClient_Token(t *testing.T) {
	const secret = "secret"
	srv := newServer(t, handler.Opts{JWTSecret: secret})

	token, err := handler.IssueToken(secret, wallet1, time.Minute)
	require.NoError(t, err)

	res, err := New(srv.URL, WithToken(token)).Pledge(testCtx, 5)
	require.NoError(t, err)
	assert.Equal(t, wallet1, res.Pledger)

	_, err = New(srv.URL, WithCaller(wallet1)).Pledge(testCtx, 5)
	assert.Error(t, err)
}
