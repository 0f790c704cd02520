package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"checkout-backend/internal/domains/checkout/model"
	"checkout-backend/internal/shared"
	"checkout-backend/internal/shared/utils"
	"checkout-backend/pkg/metrics"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	gotBatch int
	expired  int
	err      error
}

func (f *fakeExpirer) ExpireStaleSessions(_ context.Context, batchSize int) (int, error) {
	f.gotBatch = batchSize
	return f.expired, f.err
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestExpireSessionsHandler(t *testing.T) {
	t.Run("uses configured batch when payload is empty", func(t *testing.T) {
		exp := &fakeExpirer{expired: 3}
		h := NewExpireSessionsHandler(exp, 150)

		require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeExpireStaleSessions, nil)))
		assert.Equal(t, 150, exp.gotBatch)
	})

	t.Run("payload overrides batch", func(t *testing.T) {
		exp := &fakeExpirer{}
		h := NewExpireSessionsHandler(exp, 150)
		task, err := utils.NewTask(shared.TypeExpireStaleSessions, shared.ExpireStaleSessionsPayload{BatchSize: 20})
		require.NoError(t, err)

		require.NoError(t, h.ProcessTask(context.Background(), task))
		assert.Equal(t, 20, exp.gotBatch)
	})

	t.Run("sweep error is retried", func(t *testing.T) {
		exp := &fakeExpirer{err: errors.New("db down")}
		h := NewExpireSessionsHandler(exp, 10)

		err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeExpireStaleSessions, nil))
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})
}

func startedTask(t *testing.T) (*asynq.Task, model.EventEnvelope) {
	t.Helper()
	item, err := model.NewLineItem(uuid.New(), "Go in Practice", decimal.RequireFromString("39.90"), 1)
	require.NoError(t, err)
	_, ev, err := model.StartSession(uuid.New(), uuid.New(), []model.LineItem{item})
	require.NoError(t, err)

	env, err := model.NewEnvelope(ev)
	require.NoError(t, err)
	payload, err := json.Marshal(env)
	require.NoError(t, err)
	return asynq.NewTask(shared.TypeCheckoutEvent, payload), env
}

func TestRelayEventHandler_WritesToKafka(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCheckoutMetrics(reg)
	w := &fakeWriter{}
	h := NewRelayEventHandler(w, m)

	task, env := startedTask(t)
	require.NoError(t, h.ProcessTask(context.Background(), task))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, env.SessionID.String(), string(w.msgs[0].Key))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelayedEvents.WithLabelValues(model.EventSessionStarted)))
}

func TestRelayEventHandler_NoWriterOnlyLogs(t *testing.T) {
	h := NewRelayEventHandler(nil, nil)
	task, _ := startedTask(t)
	assert.NoError(t, h.ProcessTask(context.Background(), task))
}

func TestRelayEventHandler_WriteErrorIsRetried(t *testing.T) {
	h := NewRelayEventHandler(&fakeWriter{err: errors.New("broker down")}, nil)
	task, _ := startedTask(t)

	err := h.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestRelayEventHandler_BadPayloadSkipsRetry(t *testing.T) {
	h := NewRelayEventHandler(&fakeWriter{}, nil)

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeCheckoutEvent, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	unknown, err := json.Marshal(model.EventEnvelope{EventID: uuid.New(), EventType: "checkout.unknown", Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	err = h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeCheckoutEvent, unknown))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
