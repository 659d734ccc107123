// Package plannerserver exposes the decision engine over gRPC. A remote game
// host opens a session per side, sends a snapshot whenever it is that side's
// turn and receives the command the planner would play.
package plannerserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tacticsai.planner.v1.PlannerService"

const (
	methodCreateSession = "CreateSession"
	methodDecide        = "Decide"
	methodResetSession  = "ResetSession"
	methodCloseSession  = "CloseSession"
)

// PlannerServiceServer is the server API. Every message is a
// google.protobuf.Struct whose fields follow the request and response types
// in messages.go.
type PlannerServiceServer interface {
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Decide(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(PlannerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PlannerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PlannerServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func fullMethod(method string) string { return "/" + ServiceName + "/" + method }

// ServiceDesc describes PlannerService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlannerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodCreateSession, Handler: unaryHandler(methodCreateSession, PlannerServiceServer.CreateSession)},
		{MethodName: methodDecide, Handler: unaryHandler(methodDecide, PlannerServiceServer.Decide)},
		{MethodName: methodResetSession, Handler: unaryHandler(methodResetSession, PlannerServiceServer.ResetSession)},
		{MethodName: methodCloseSession, Handler: unaryHandler(methodCloseSession, PlannerServiceServer.CloseSession)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tacticsai/planner/v1/planner.proto",
}

// RegisterPlannerServiceServer registers srv on s.
func RegisterPlannerServiceServer(s grpc.ServiceRegistrar, srv PlannerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client is a typed PlannerService client.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return err
	}
	return fromStruct(out, resp)
}

func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest, opts ...grpc.CallOption) (CreateSessionResponse, error) {
	var resp CreateSessionResponse
	err := c.invoke(ctx, methodCreateSession, req, &resp, opts...)
	return resp, err
}

// Decide asks the session for its next command on state.
func (c *Client) Decide(ctx context.Context, req DecideRequest, opts ...grpc.CallOption) (DecideResponse, error) {
	var resp DecideResponse
	err := c.invoke(ctx, methodDecide, req, &resp, opts...)
	return resp, err
}

func (c *Client) ResetSession(ctx context.Context, sessionID string, opts ...grpc.CallOption) (SessionInfo, error) {
	var resp SessionInfo
	err := c.invoke(ctx, methodResetSession, SessionRequest{SessionID: sessionID}, &resp, opts...)
	return resp, err
}

func (c *Client) CloseSession(ctx context.Context, sessionID string, opts ...grpc.CallOption) error {
	var resp SessionInfo
	return c.invoke(ctx, methodCloseSession, SessionRequest{SessionID: sessionID}, &resp, opts...)
}
