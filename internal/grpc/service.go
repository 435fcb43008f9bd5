package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mr1hm/go-community-alerts/internal/models"
)

const (
	serviceName        = "alertboard.v1.AlertBoard"
	getAlertMethod     = "/" + serviceName + "/GetAlert"
	listAlertsMethod   = "/" + serviceName + "/ListAlerts"
	streamEventsMethod = "/" + serviceName + "/StreamEvents"
)

type GetAlertRequest struct {
	ID string `json:"id"`
}

type ListAlertsRequest struct {
	Criteria models.Criteria `json:"criteria"`
}

type ListAlertsResponse struct {
	Alerts []models.Alert `json:"alerts"`
	Count  int            `json:"count"`
}

// StreamEventsRequest narrows alert_added events to alerts matching
// Criteria. Filter changes on the board are always forwarded.
type StreamEventsRequest struct {
	Criteria models.Criteria `json:"criteria"`
}

// Event is one message on the StreamEvents stream. The first message is a
// snapshot carrying the alerts that match the request criteria.
type Event struct {
	Type     string          `json:"type"`
	Alert    *models.Alert   `json:"alert,omitempty"`
	Alerts   []models.Alert  `json:"alerts,omitempty"`
	Criteria models.Criteria `json:"criteria"`
	Count    int             `json:"filtered_count"`
}

type AlertBoardServer interface {
	GetAlert(context.Context, *GetAlertRequest) (*models.Alert, error)
	ListAlerts(context.Context, *ListAlertsRequest) (*ListAlertsResponse, error)
	StreamEvents(*StreamEventsRequest, EventStream) error
}

type EventStream interface {
	Send(*Event) error
	Context() context.Context
}

type eventStream struct {
	grpc.ServerStream
}

func (s *eventStream) Send(ev *Event) error {
	return s.ServerStream.SendMsg(ev)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AlertBoardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetAlert", Handler: getAlertHandler},
		{MethodName: "ListAlerts", Handler: listAlertsHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamEvents", Handler: streamEventsHandler, ServerStreams: true},
	},
}

func getAlertHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetAlertRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AlertBoardServer).GetAlert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getAlertMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertBoardServer).GetAlert(ctx, req.(*GetAlertRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listAlertsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListAlertsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AlertBoardServer).ListAlerts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listAlertsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertBoardServer).ListAlerts(ctx, req.(*ListAlertsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func streamEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(StreamEventsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(AlertBoardServer).StreamEvents(in, &eventStream{stream})
}
