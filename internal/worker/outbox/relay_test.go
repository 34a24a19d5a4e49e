package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	"github.com/m04kA/SMC-FacilityService/pkg/logger"
	"github.com/m04kA/SMC-FacilityService/pkg/metrics"
)

type fakeRepo struct {
	pending   []*domain.Notification
	published []string
	failed    map[string]string
	limit     int
	maxAtt    int
}

func (f *fakeRepo) FetchPending(_ context.Context, limit, maxAttempts int) ([]*domain.Notification, error) {
	f.limit, f.maxAtt = limit, maxAttempts
	return f.pending, nil
}

func (f *fakeRepo) MarkPublished(_ context.Context, id string) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(_ context.Context, id string, reason string) error {
	if f.failed == nil {
		f.failed = make(map[string]string)
	}
	f.failed[id] = reason
	return nil
}

type publishCall struct {
	key, id string
}

type fakePublisher struct {
	calls  []publishCall
	failID string
}

func (f *fakePublisher) PublishJSON(_ context.Context, key string, messageID string, _ any) error {
	f.calls = append(f.calls, publishCall{key: key, id: messageID})
	if messageID == f.failID {
		return errors.New("channel closed")
	}
	return nil
}

type passTx struct{}

func (passTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

func TestRelay_RunOnce(t *testing.T) {
	repo := &fakeRepo{pending: []*domain.Notification{
		{ID: "a", Template: domain.TemplateReservationCreated, Payload: json.RawMessage(`{}`)},
		{ID: "b", Template: domain.TemplatePaymentLink, Payload: json.RawMessage(`{}`), Attempts: 2},
	}}
	pub := &fakePublisher{failID: "b"}
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), "test")

	relay := NewRelay(repo, pub, passTx{}, m, logger.Nop(), Config{BatchSize: 10, MaxAttempts: 5})

	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, 10, repo.limit)
	assert.Equal(t, 5, repo.maxAtt)
	assert.Equal(t, []string{"a"}, repo.published)
	assert.Equal(t, "channel closed", repo.failed["b"])
	assert.Equal(t, []publishCall{
		{key: "notification.reservation_created", id: "a"},
		{key: "notification.payment_link", id: "b"},
	}, pub.calls)
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	relay := NewRelay(&fakeRepo{}, &fakePublisher{}, passTx{}, nil, logger.Nop(), Config{PollInterval: 1e6, BatchSize: 1, MaxAttempts: 1})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	cancel()
	<-done
}
