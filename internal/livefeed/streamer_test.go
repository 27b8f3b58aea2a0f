package livefeed

import (
	"context"
	"testing"
	"time"
)

func TestPublishDropsOldestWhenBufferFull(t *testing.T) {
	s := NewStreamer()
	// Fill the broadcast buffer (capacity 100) then publish one more;
	// it must not block.
	for i := 0; i < 101; i++ {
		s.Publish(&PlanEvent{MissionID: "m1", Stage: StageGlobalPlan, PercentDone: float64(i)})
	}
	if len(s.broadcast) != 100 {
		t.Errorf("expected broadcast channel to stay at capacity 100, got %d", len(s.broadcast))
	}
}

func TestValidateClearanceMapsKnownTokens(t *testing.T) {
	s := NewStreamer()
	cases := map[string]int{
		"admin":      ClearanceAdmin,
		"commander":  ClearanceCommander,
		"operator":   ClearanceOperator,
		"unknown-xx": ClearanceBasic,
	}
	for token, want := range cases {
		if got := s.validateClearance(token); got != want {
			t.Errorf("validateClearance(%q) = %d, want %d", token, got, want)
		}
	}
}

func TestRegisterAndUnregisterClientUpdatesStats(t *testing.T) {
	s := NewStreamer()
	c := &Client{send: make(chan *PlanEvent, 1), id: "test-client"}

	s.RegisterClient(c)
	clients, _, served := s.Stats()
	if clients != 1 || served != 1 {
		t.Fatalf("expected 1 client/1 served after register, got clients=%d served=%d", clients, served)
	}

	s.UnregisterClient(c)
	clients, _, _ = s.Stats()
	if clients != 0 {
		t.Errorf("expected 0 clients after unregister, got %d", clients)
	}
}

func TestRunDispatchesEventsToClients(t *testing.T) {
	s := NewStreamer()
	c := &Client{send: make(chan *PlanEvent, 1), id: "test-client", clearance: ClearanceAdmin}
	s.RegisterClient(c)

	done := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	go func() {
		s.Run(ctx)
		close(done)
	}()

	s.Publish(&PlanEvent{MissionID: "m1", Stage: StageComplete, Clearance: ClearanceBasic})

	select {
	case evt := <-c.send:
		if evt.MissionID != "m1" {
			t.Errorf("expected mission id m1, got %q", evt.MissionID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatched event")
	}
	cancel()
	<-done
}
