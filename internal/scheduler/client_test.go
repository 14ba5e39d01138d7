package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	url   string
	queue string
}

func (c testSchedulerConfig) GetRedisURL() string { return c.url }

func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }

func (c testSchedulerConfig) GetAsynqQueueName() string { return c.queue }

func (c testSchedulerConfig) GetAsynqConcurrency() int { return 1 }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected an error without a redis url")
	}
}

func TestNilClientIsNoOp(t *testing.T) {
	var c *Client
	if err := c.ScheduleFollowUp(context.Background(), "lead", uuid.New(), "call back", time.Now()); err != nil {
		t.Fatalf("nil client should be a no-op: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil client close should be a no-op: %v", err)
	}
}

func TestScheduleFollowUpEnqueuesDelayedTask(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{url: "redis://" + mr.Addr(), queue: "crm"})
	if err != nil {
		t.Fatalf("client setup failed: %v", err)
	}
	defer client.Close()

	leadID := uuid.New()
	at := time.Now().Add(2 * time.Hour)
	if err := client.ScheduleFollowUp(context.Background(), "lead", leadID, "call back", at); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	tasks, err := inspector.ListScheduledTasks("crm")
	if err != nil {
		t.Fatalf("listing scheduled tasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected one scheduled task, got %d", len(tasks))
	}
	if tasks[0].Type != TaskFollowUpDue {
		t.Fatalf("task type = %q, want %q", tasks[0].Type, TaskFollowUpDue)
	}

	var payload FollowUpDuePayload
	if err := json.Unmarshal(tasks[0].Payload, &payload); err != nil {
		t.Fatalf("payload did not decode: %v", err)
	}
	if payload.EntityType != "lead" || payload.EntityID != leadID.String() || payload.Message != "call back" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
