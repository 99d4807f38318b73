package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Service and method names. Messages are protobuf well-known types so no
// generated code is needed on either side.
const (
	SessionServiceName = "faceguard.v1.SessionService"
	AdminServiceName   = "faceguard.v1.AdminService"

	MethodValidateSession   = "/" + SessionServiceName + "/Validate"
	MethodInvalidateSession = "/" + SessionServiceName + "/Invalidate"

	MethodAdminLogin    = "/" + AdminServiceName + "/Login"
	MethodListUsers     = "/" + AdminServiceName + "/ListUsers"
	MethodDeleteUser    = "/" + AdminServiceName + "/DeleteUser"
	MethodResetPIN      = "/" + AdminServiceName + "/ResetPIN"
	MethodUnlock        = "/" + AdminServiceName + "/Unlock"
	MethodLockoutStatus = "/" + AdminServiceName + "/LockoutStatus"
	MethodListSessions  = "/" + AdminServiceName + "/ListSessions"
	MethodRevokeSession = "/" + AdminServiceName + "/RevokeSession"
	MethodAuditLog      = "/" + AdminServiceName + "/AuditLog"
	MethodAccessLog     = "/" + AdminServiceName + "/AccessLog"
	MethodIntruders     = "/" + AdminServiceName + "/Intruders"
)

// SessionServer lets other processes check a session token.
type SessionServer interface {
	Validate(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Invalidate(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// AdminServer is the admin panel API. Everything but Login requires an
// admin token in the access_token metadata.
type AdminServer interface {
	Login(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	ListUsers(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	DeleteUser(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ResetPIN(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Unlock(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	LockoutStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListSessions(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	RevokeSession(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	AuditLog(context.Context, *wrapperspb.Int32Value) (*structpb.ListValue, error)
	AccessLog(context.Context, *wrapperspb.Int32Value) (*structpb.ListValue, error)
	Intruders(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

// unary adapts a typed method to a grpc.MethodDesc handler.
func unary[S any, Req any, Resp any, PReq interface {
	*Req
}](fullMethod string, call func(S, context.Context, PReq) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: unary(MethodValidateSession, SessionServer.Validate)},
		{MethodName: "Invalidate", Handler: unary(MethodInvalidateSession, SessionServer.Invalidate)},
	},
	Metadata: "faceguard/v1/session.proto",
}

var adminServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unary(MethodAdminLogin, AdminServer.Login)},
		{MethodName: "ListUsers", Handler: unary(MethodListUsers, AdminServer.ListUsers)},
		{MethodName: "DeleteUser", Handler: unary(MethodDeleteUser, AdminServer.DeleteUser)},
		{MethodName: "ResetPIN", Handler: unary(MethodResetPIN, AdminServer.ResetPIN)},
		{MethodName: "Unlock", Handler: unary(MethodUnlock, AdminServer.Unlock)},
		{MethodName: "LockoutStatus", Handler: unary(MethodLockoutStatus, AdminServer.LockoutStatus)},
		{MethodName: "ListSessions", Handler: unary(MethodListSessions, AdminServer.ListSessions)},
		{MethodName: "RevokeSession", Handler: unary(MethodRevokeSession, AdminServer.RevokeSession)},
		{MethodName: "AuditLog", Handler: unary(MethodAuditLog, AdminServer.AuditLog)},
		{MethodName: "AccessLog", Handler: unary(MethodAccessLog, AdminServer.AccessLog)},
		{MethodName: "Intruders", Handler: unary(MethodIntruders, AdminServer.Intruders)},
	},
	Metadata: "faceguard/v1/admin.proto",
}
