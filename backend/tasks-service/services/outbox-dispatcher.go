package services

import (
	"context"
	"time"

	"fms-project/backend/tasks-service/logging"
	"fms-project/backend/tasks-service/models"
	"fms-project/backend/tasks-service/repositories"
)

const outboxMaxAttempts = 5

// OutboxDispatcher drains the outbox written by the lifecycle engine and
// delivers each event to its downstream service. Failures are retried on the
// next tick until the attempt budget runs out, so a completed task never
// loses its follow-on effects silently.
type OutboxDispatcher struct {
	outbox        repositories.OutboxRepository
	projects      ProjectsClient
	notifications NotificationsClient
	interval      time.Duration
	batchSize     int64
}

func NewOutboxDispatcher(outbox repositories.OutboxRepository, projects ProjectsClient, notifications NotificationsClient, interval time.Duration) *OutboxDispatcher {
	return &OutboxDispatcher{
		outbox:        outbox,
		projects:      projects,
		notifications: notifications,
		interval:      interval,
		batchSize:     50,
	}
}

// Run blocks until the context is cancelled, dispatching pending events on
// every tick.
func (d *OutboxDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchPending(ctx)
		}
	}
}

// DispatchPending delivers one batch of pending events.
func (d *OutboxDispatcher) DispatchPending(ctx context.Context) {
	events, err := d.outbox.FetchPending(ctx, d.batchSize)
	if err != nil {
		logging.Logger.Errorf("Event ID: OUTBOX_FETCH_FAILED, Description: Could not fetch pending outbox events: %v", err)
		return
	}

	for _, event := range events {
		if err := d.dispatch(ctx, &event); err != nil {
			attempts := event.Attempts + 1
			terminal := attempts >= outboxMaxAttempts
			if terminal {
				logging.Logger.Errorf("Event ID: OUTBOX_EVENT_FAILED, Description: Outbox event %s (%s) gave up after %d attempts: %v", event.ID, event.Kind, attempts, err)
			} else {
				logging.Logger.Warnf("Event ID: OUTBOX_EVENT_RETRY, Description: Outbox event %s (%s) attempt %d failed: %v", event.ID, event.Kind, attempts, err)
			}
			if markErr := d.outbox.MarkFailed(ctx, event.ID, attempts, err.Error(), terminal); markErr != nil {
				logging.Logger.Errorf("Event ID: OUTBOX_MARK_FAILED, Description: Could not record failure for event %s: %v", event.ID, markErr)
			}
			continue
		}
		if err := d.outbox.MarkDispatched(ctx, event.ID); err != nil {
			logging.Logger.Errorf("Event ID: OUTBOX_MARK_FAILED, Description: Could not mark event %s dispatched: %v", event.ID, err)
		}
	}
}

func (d *OutboxDispatcher) dispatch(ctx context.Context, event *models.OutboxEvent) error {
	switch event.Kind {
	case models.OutboxProjectTrigger:
		projectID, err := d.projects.MaterializeProject(ctx, event.Payload["templateId"], event.Payload["triggeredBy"])
		if err != nil {
			return err
		}
		logging.Logger.Infof("Event ID: PROJECT_TRIGGERED, Description: Task %s triggered project %s from template %s", event.TaskID, projectID, event.Payload["templateId"])
		return nil
	case models.OutboxNotification:
		return d.notifications.Notify(ctx, event.Payload["userId"], event.Payload["message"])
	default:
		logging.Logger.Warnf("Event ID: OUTBOX_UNKNOWN_KIND, Description: Dropping outbox event %s with unknown kind %q", event.ID, event.Kind)
		return nil
	}
}
