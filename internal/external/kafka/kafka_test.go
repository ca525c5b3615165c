package futurecash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	model "github.com/glkeru/loyalty/futurecash/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestDecodeCallback(t *testing.T) {
	callback, err := DecodeCallback([]byte(`{"transaction_id":"tx-1","user_id":"u","offer_id":"o","points":-50,"provider":"adgate"}`))
	require.NoError(t, err)
	require.Equal(t, "tx-1", callback.TransactionID)
	require.True(t, callback.IsChargeback())

	_, err = DecodeCallback([]byte(`{broken`))
	require.ErrorIs(t, err, model.ErrBadRequest)
}

func TestEncodeEvent(t *testing.T) {
	event := model.PointsEvent{ID: uuid.New(), UserID: uuid.New(), ActivityType: model.ActivityVideoCompleted, PointsChange: 25, Balance: 75}
	msg, err := EncodeEvent(event)
	require.NoError(t, err)
	require.Equal(t, event.UserID.String(), string(msg.Key))

	decoded := model.PointsEvent{}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, int64(75), decoded.Balance)
}

func TestSettled(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{nil, true},
		{fmt.Errorf("callback message: %w", model.ErrBadRequest), true},
		{fmt.Errorf("bad signature: %w", model.ErrInvalidCallback), true},
		{fmt.Errorf("offer %w", model.ErrNotFound), true},
		{errors.New("connection refused"), false},
		{context.Canceled, false},
	}
	for _, ts := range tests {
		require.Equal(t, ts.expected, Settled(ts.err), "%v", ts.err)
	}
}

func TestOffsetTrackerOrder(t *testing.T) {
	tracker := NewOffsetTracker()
	m0 := kafka.Message{Partition: 0, Offset: 10}
	m1 := kafka.Message{Partition: 0, Offset: 11}
	m2 := kafka.Message{Partition: 0, Offset: 12}
	other := kafka.Message{Partition: 1, Offset: 3}
	for _, m := range []kafka.Message{m0, m1, other, m2} {
		tracker.Add(m)
	}

	// 11 готов раньше 10 - фиксировать нечего
	_, ok := tracker.Done(m1, true)
	require.False(t, ok)

	commit, ok := tracker.Done(m0, true)
	require.True(t, ok)
	require.Equal(t, int64(11), commit.Offset)

	commit, ok = tracker.Done(other, true)
	require.True(t, ok)
	require.Equal(t, 1, commit.Partition)

	commit, ok = tracker.Done(m2, true)
	require.True(t, ok)
	require.Equal(t, int64(12), commit.Offset)
}

// сбой обработки: offset не двигается дальше упавшего сообщения
func TestOffsetTrackerFailure(t *testing.T) {
	tracker := NewOffsetTracker()
	m0 := kafka.Message{Partition: 0, Offset: 1}
	m1 := kafka.Message{Partition: 0, Offset: 2}
	m2 := kafka.Message{Partition: 0, Offset: 3}
	tracker.Add(m0)
	tracker.Add(m1)
	tracker.Add(m2)

	commit, ok := tracker.Done(m0, true)
	require.True(t, ok)
	require.Equal(t, int64(1), commit.Offset)

	_, ok = tracker.Done(m1, false)
	require.False(t, ok)
	_, ok = tracker.Done(m2, true)
	require.False(t, ok)
}
