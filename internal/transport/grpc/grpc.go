// Package grpc implements the gRPC transport for readmebot.
//
// The Conversation service has a single unary Handle method. Messages are
// carried with a JSON codec registered under the "json" content subtype, so
// clients send message.Event and receive message.Response without generated
// stubs. The standard grpc.health.v1 service is registered alongside it.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/readmebot/internal/message"
	"github.com/nadzzz/readmebot/internal/transport"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "readmebot.v1.Conversation"

// HandleMethod is the full method path of Conversation.Handle.
const HandleMethod = "/" + ServiceName + "/Handle"

// ConversationServer is the server API for the Conversation service.
type ConversationServer interface {
	Handle(ctx context.Context, ev *message.Event) (*message.Response, error)
}

// ServiceDesc describes the Conversation service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConversationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Handle", Handler: handleHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "readmebot/v1/conversation",
}

func handleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(message.Event)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConversationServer).Handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HandleMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ConversationServer).Handle(ctx, req.(*message.Event))
	})
}

type server struct {
	handler transport.Handler
}

func (s *server) Handle(ctx context.Context, ev *message.Event) (*message.Response, error) {
	resp, err := s.handler(ctx, ev)
	if err != nil {
		slog.Error("grpc dispatch failed", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, handler)
}

// Serve runs the gRPC server on lis until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, handler transport.Handler) error {
	t.server = grpc.NewServer()
	t.server.RegisterService(&ServiceDesc, &server{handler: handler})

	t.health = health.NewServer()
	t.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(t.server, t.health)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.health.Shutdown()
		t.server.GracefulStop()
	}()

	if err := t.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}

// Send calls Conversation.Handle on conn.
func Send(ctx context.Context, conn grpc.ClientConnInterface, ev *message.Event) (*message.Response, error) {
	resp := new(message.Response)
	if err := conn.Invoke(ctx, HandleMethod, ev, resp, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return resp, nil
}
