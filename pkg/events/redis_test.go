package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

func TestRedis_Publish(t *testing.T) {
	t.Skip("run redis tests manually")

	r, err := NewRedis("redis://localhost", "pledged-test")
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.client.Del(r.statsKey(), r.topKey()).Err())

	sub := r.client.Subscribe(r.Channel())
	defer sub.Close()

	_, err = sub.Receive()
	require.NoError(t, err)

	err = r.Publish(testCtx, &model.Event{Seq: 1, Kind: model.EventPledgeRecorded, Caller: "wallet1", Amount: 10, TotalPledged: 10})
	require.NoError(t, err)

	msg, err := sub.ReceiveMessage()
	require.NoError(t, err)
	require.Contains(t, msg.Payload, `"kind":"PledgeRecorded"`)

	count, err := r.count(model.EventPledgeRecorded)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	top, err := r.topPledgers(10)
	require.NoError(t, err)
	require.Equal(t, []model.Address{"wallet1"}, top)
}
