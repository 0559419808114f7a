package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fms-project/backend/tasks-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingOutbox struct {
	pending    []models.OutboxEvent
	dispatched []string
	failed     map[string]bool // id -> terminal
}

func (o *trackingOutbox) Enqueue(ctx context.Context, event *models.OutboxEvent) error {
	o.pending = append(o.pending, *event)
	return nil
}

func (o *trackingOutbox) FetchPending(ctx context.Context, limit int64) ([]models.OutboxEvent, error) {
	return o.pending, nil
}

func (o *trackingOutbox) MarkDispatched(ctx context.Context, id string) error {
	o.dispatched = append(o.dispatched, id)
	return nil
}

func (o *trackingOutbox) MarkFailed(ctx context.Context, id string, attempts int, lastError string, terminal bool) error {
	if o.failed == nil {
		o.failed = make(map[string]bool)
	}
	o.failed[id] = terminal
	return nil
}

type fakeNotificationsClient struct {
	sent      []string
	notifyErr error
}

func (n *fakeNotificationsClient) Notify(ctx context.Context, userID, message string) error {
	if n.notifyErr != nil {
		return n.notifyErr
	}
	n.sent = append(n.sent, userID)
	return nil
}

func TestDispatchPendingDeliversEvents(t *testing.T) {
	outbox := &trackingOutbox{pending: []models.OutboxEvent{
		{ID: "e1", Kind: models.OutboxProjectTrigger, TaskID: "TSK-1", Payload: map[string]string{"templateId": "TPL-2"}},
		{ID: "e2", Kind: models.OutboxNotification, TaskID: "TSK-1", Payload: map[string]string{"userId": "alice", "message": "hi"}},
	}}
	projects := &fakeProjectsClient{}
	notifications := &fakeNotificationsClient{}

	d := NewOutboxDispatcher(outbox, projects, notifications, time.Second)
	d.DispatchPending(context.Background())

	assert.Equal(t, []string{"e1", "e2"}, outbox.dispatched)
	assert.Equal(t, []string{"alice"}, notifications.sent)
	assert.Empty(t, outbox.failed)
}

func TestDispatchFailureIsRetriedThenTerminal(t *testing.T) {
	outbox := &trackingOutbox{pending: []models.OutboxEvent{
		{ID: "e1", Kind: models.OutboxNotification, Attempts: 0, Payload: map[string]string{"userId": "alice"}},
		{ID: "e2", Kind: models.OutboxNotification, Attempts: outboxMaxAttempts - 1, Payload: map[string]string{"userId": "bob"}},
	}}
	notifications := &fakeNotificationsClient{notifyErr: errors.New("cassandra down")}

	d := NewOutboxDispatcher(outbox, &fakeProjectsClient{}, notifications, time.Second)
	d.DispatchPending(context.Background())

	require.Len(t, outbox.failed, 2)
	assert.False(t, outbox.failed["e1"], "first failure should stay retryable")
	assert.True(t, outbox.failed["e2"], "attempt budget exhausted, should be terminal")
	assert.Empty(t, outbox.dispatched)
}

func TestDispatchUnknownKindIsDropped(t *testing.T) {
	outbox := &trackingOutbox{pending: []models.OutboxEvent{{ID: "e1", Kind: "mystery"}}}

	d := NewOutboxDispatcher(outbox, &fakeProjectsClient{}, &fakeNotificationsClient{}, time.Second)
	d.DispatchPending(context.Background())

	assert.Equal(t, []string{"e1"}, outbox.dispatched)
}
