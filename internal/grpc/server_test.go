package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/mr1hm/go-community-alerts/internal/board"
	"github.com/mr1hm/go-community-alerts/internal/broadcast"
	"github.com/mr1hm/go-community-alerts/internal/models"
	"github.com/mr1hm/go-community-alerts/internal/seed"
)

type testEnv struct {
	store       *board.Store
	broadcaster *broadcast.Broadcaster
	conn        *grpc.ClientConn
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	alerts, err := seed.Default(time.Now())
	if err != nil {
		t.Fatalf("failed to load seed: %v", err)
	}

	env := &testEnv{
		store:       board.New(board.WithSeed(alerts)),
		broadcaster: broadcast.NewBroadcaster(10),
	}
	unsubscribe := env.store.Subscribe(env.broadcaster.Observer())

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(env.store, env.broadcaster, nil)
	go srv.Serve(lis)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	env.conn = conn

	t.Cleanup(func() {
		conn.Close()
		unsubscribe()
		env.broadcaster.Close()
		srv.Stop()
	})
	return env
}

func (env *testEnv) openStream(t *testing.T, ctx context.Context, criteria models.Criteria) grpc.ClientStream {
	t.Helper()
	stream, err := env.conn.NewStream(ctx, &serviceDesc.Streams[0], streamEventsMethod)
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	if err := stream.SendMsg(&StreamEventsRequest{Criteria: criteria}); err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("failed to close send: %v", err)
	}
	return stream
}

func recvEvent(t *testing.T, stream grpc.ClientStream) *Event {
	t.Helper()
	ev := new(Event)
	if err := stream.RecvMsg(ev); err != nil {
		t.Fatalf("failed to receive event: %v", err)
	}
	return ev
}

func TestGetAlert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var alert models.Alert
	if err := env.conn.Invoke(ctx, getAlertMethod, &GetAlertRequest{ID: "2"}, &alert); err != nil {
		t.Fatalf("GetAlert failed: %v", err)
	}
	if alert.Category != models.CategoryAnimals {
		t.Errorf("expected animals alert, got %+v", alert)
	}

	err := env.conn.Invoke(ctx, getAlertMethod, &GetAlertRequest{ID: "missing"}, &alert)
	if status.Code(err) != codes.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}

	err = env.conn.Invoke(ctx, getAlertMethod, &GetAlertRequest{}, &alert)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestListAlerts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var resp ListAlertsResponse
	req := &ListAlertsRequest{Criteria: models.Criteria{Severity: "medium"}}
	if err := env.conn.Invoke(ctx, listAlertsMethod, req, &resp); err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if resp.Count != 2 || resp.Alerts[0].ID != "2" || resp.Alerts[1].ID != "3" {
		t.Errorf("expected alerts 2 and 3, got %+v", resp)
	}

	// Listing does not change the board's active criteria
	if !env.store.Criteria().IsCleared() {
		t.Errorf("expected cleared criteria, got %+v", env.store.Criteria())
	}

	req = &ListAlertsRequest{Criteria: models.Criteria{Status: "closed"}}
	err := env.conn.Invoke(ctx, listAlertsMethod, req, &resp)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}

func TestStreamEvents_FiltersAddedAlerts(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream := env.openStream(t, ctx, models.Criteria{Category: "weather"})

	snapshot := recvEvent(t, stream)
	if snapshot.Type != "snapshot" || snapshot.Count != 0 {
		t.Errorf("expected empty snapshot, got %+v", snapshot)
	}
	if snapshot.Criteria.Category != "weather" || snapshot.Criteria.Status != models.All {
		t.Errorf("unexpected snapshot criteria %+v", snapshot.Criteria)
	}

	env.store.AddAlert(models.Draft{Title: "Lost dog", Description: "Brown lab", Category: models.CategoryAnimals, Severity: models.SeverityLow})
	added := env.store.AddAlert(models.Draft{Title: "Hail", Description: "Golf ball size", Category: models.CategoryWeather, Severity: models.SeverityHigh})

	ev := recvEvent(t, stream)
	if ev.Type != string(board.EventAlertAdded) || ev.Alert == nil || ev.Alert.ID != added.ID {
		t.Errorf("expected weather alert %s, got %+v", added.ID, ev)
	}
	if ev.Count != 6 {
		t.Errorf("expected filtered count 6, got %d", ev.Count)
	}

	env.store.UpdateFilters(models.Criteria{Severity: "high"})

	ev = recvEvent(t, stream)
	if ev.Type != string(board.EventFiltersUpdated) || ev.Count != 2 {
		t.Errorf("expected filters_updated with 2 alerts, got %+v", ev)
	}
}

func TestStreamEvents_EndsWhenBroadcasterCloses(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream := env.openStream(t, ctx, models.Criteria{})
	snapshot := recvEvent(t, stream)
	if snapshot.Count != 4 || len(snapshot.Alerts) != 4 {
		t.Errorf("expected snapshot of 4 alerts, got %+v", snapshot)
	}

	env.broadcaster.Close()

	var ev Event
	if err := stream.RecvMsg(&ev); err == nil {
		t.Errorf("expected stream to end, got %+v", ev)
	}
}

func TestStreamEvents_InvalidCriteria(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream := env.openStream(t, ctx, models.Criteria{Category: "Animals"})

	var ev Event
	err := stream.RecvMsg(&ev)
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
	if env.broadcaster.SubscriberCount() != 0 {
		t.Errorf("expected no subscribers, got %d", env.broadcaster.SubscriberCount())
	}
}
