package grpc

import (
	"context"
	"log/slog"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mr1hm/go-community-alerts/internal/board"
	"github.com/mr1hm/go-community-alerts/internal/broadcast"
	"github.com/mr1hm/go-community-alerts/internal/metrics"
	"github.com/mr1hm/go-community-alerts/internal/models"
)

type Server struct {
	store       *board.Store
	broadcaster *broadcast.Broadcaster
	metrics     *metrics.Metrics
	grpcServer  *grpc.Server
}

func NewServer(store *board.Store, broadcaster *broadcast.Broadcaster, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.NewForTesting()
	}
	s := &Server{
		store:       store,
		broadcaster: broadcaster,
		metrics:     m,
		grpcServer:  grpc.NewServer(),
	}
	s.grpcServer.RegisterService(&serviceDesc, s)
	return s
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	slog.Info("gRPC server listening", "addr", addr)
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// Stop waits for in-flight calls. Close the broadcaster first so open
// streams return.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func invalidCriteria(c models.Criteria) error {
	if fields := c.Invalid(); len(fields) > 0 {
		return status.Errorf(codes.InvalidArgument, "invalid filter value: %s", strings.Join(fields, ", "))
	}
	return nil
}

func (s *Server) GetAlert(ctx context.Context, req *GetAlertRequest) (*models.Alert, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	alert, ok := s.store.Get(req.ID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "alert not found: %s", req.ID)
	}
	return &alert, nil
}

func (s *Server) ListAlerts(ctx context.Context, req *ListAlertsRequest) (*ListAlertsResponse, error) {
	if err := invalidCriteria(req.Criteria); err != nil {
		return nil, err
	}

	alerts := board.Filter(s.store.Alerts(), req.Criteria)
	return &ListAlertsResponse{Alerts: alerts, Count: len(alerts)}, nil
}

func (s *Server) StreamEvents(req *StreamEventsRequest, stream EventStream) error {
	if err := invalidCriteria(req.Criteria); err != nil {
		return err
	}

	id, ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(id)

	gauge := s.metrics.StreamSubscribers.WithLabelValues("grpc")
	gauge.Inc()
	defer gauge.Dec()

	slog.Info("client subscribed to alert stream", "subscriber_id", id, "transport", "grpc")

	matching := board.Filter(s.store.Alerts(), req.Criteria)
	snapshot := &Event{
		Type:     "snapshot",
		Alerts:   matching,
		Criteria: req.Criteria.Normalize(),
		Count:    len(matching),
	}
	if err := stream.Send(snapshot); err != nil {
		return err
	}

	for {
		select {
		case <-stream.Context().Done():
			slog.Info("client disconnected from alert stream", "subscriber_id", id)
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}

			// Apply filters
			if ev.Kind == board.EventAlertAdded && !board.Matches(ev.Alert, req.Criteria) {
				continue
			}

			if err := stream.Send(toEvent(ev)); err != nil {
				slog.Error("failed to send event to stream", "error", err, "subscriber_id", id)
				return err
			}
		}
	}
}

func toEvent(ev board.Event) *Event {
	return &Event{
		Type:     string(ev.Kind),
		Alert:    ev.Alert,
		Criteria: ev.Criteria,
		Count:    len(ev.Filtered),
	}
}
