package wire

import (
	"context"

	"github.com/dmitrijs2005/safelocker/internal/media"
	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "safelocker.v1.Locker"

// Method names.
const (
	MethodPing                  = "Ping"
	MethodSignUp                = "SignUp"
	MethodConfirmSignUp         = "ConfirmSignUp"
	MethodSignIn                = "SignIn"
	MethodRefreshToken          = "RefreshToken"
	MethodSignOut               = "SignOut"
	MethodForgotPassword        = "ForgotPassword"
	MethodConfirmForgotPassword = "ConfirmForgotPassword"
	MethodCurrentUser           = "CurrentUser"
	MethodCreateMediaItem       = "CreateMediaItem"
	MethodListMediaItems        = "ListMediaItems"
	MethodDeleteMediaItem       = "DeleteMediaItem"
	MethodPrepareUpload         = "PrepareUpload"
	MethodGetDownloadURL        = "GetDownloadURL"
	MethodRemoveObject          = "RemoveObject"
	MethodOnCreateMediaItem     = "OnCreateMediaItem"
	MethodOnDeleteMediaItem     = "OnDeleteMediaItem"
)

// FullMethod returns "/safelocker.v1.Locker/<name>".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// LockerServer is the server API of the Locker service.
type LockerServer interface {
	Ping(context.Context, *Empty) (*PingResponse, error)
	SignUp(context.Context, *SignUpRequest) (*SignUpResponse, error)
	ConfirmSignUp(context.Context, *ConfirmSignUpRequest) (*Empty, error)
	SignIn(context.Context, *SignInRequest) (*SignInResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	SignOut(context.Context, *SignOutRequest) (*Empty, error)
	ForgotPassword(context.Context, *ForgotPasswordRequest) (*Empty, error)
	ConfirmForgotPassword(context.Context, *ConfirmForgotPasswordRequest) (*Empty, error)
	CurrentUser(context.Context, *Empty) (*User, error)
	CreateMediaItem(context.Context, *CreateMediaItemRequest) (*media.Item, error)
	ListMediaItems(context.Context, *ListMediaItemsRequest) (*ListMediaItemsResponse, error)
	DeleteMediaItem(context.Context, *DeleteMediaItemRequest) (*media.Item, error)
	PrepareUpload(context.Context, *PrepareUploadRequest) (*PrepareUploadResponse, error)
	GetDownloadURL(context.Context, *ObjectRequest) (*URLResponse, error)
	RemoveObject(context.Context, *ObjectRequest) (*Empty, error)
	OnCreateMediaItem(*Empty, ItemStream) error
	OnDeleteMediaItem(*Empty, ItemStream) error
}

// ItemStream is the server side of a subscription.
type ItemStream interface {
	Send(*media.Item) error
	Context() context.Context
}

// RegisterLockerServer registers srv on s.
func RegisterLockerServer(s grpc.ServiceRegistrar, srv LockerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req, Resp any](name string, call func(LockerServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LockerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LockerServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

type itemStream struct {
	grpc.ServerStream
}

func (s *itemStream) Send(it *media.Item) error {
	return s.ServerStream.SendMsg(it)
}

func subscription(name string, call func(LockerServer, *Empty, ItemStream) error) grpc.StreamDesc {
	return grpc.StreamDesc{
		StreamName:    name,
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			in := new(Empty)
			if err := stream.RecvMsg(in); err != nil {
				return err
			}
			return call(srv.(LockerServer), in, &itemStream{stream})
		},
	}
}

// ServiceDesc describes the Locker service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LockerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, LockerServer.Ping),
		unary(MethodSignUp, LockerServer.SignUp),
		unary(MethodConfirmSignUp, LockerServer.ConfirmSignUp),
		unary(MethodSignIn, LockerServer.SignIn),
		unary(MethodRefreshToken, LockerServer.RefreshToken),
		unary(MethodSignOut, LockerServer.SignOut),
		unary(MethodForgotPassword, LockerServer.ForgotPassword),
		unary(MethodConfirmForgotPassword, LockerServer.ConfirmForgotPassword),
		unary(MethodCurrentUser, LockerServer.CurrentUser),
		unary(MethodCreateMediaItem, LockerServer.CreateMediaItem),
		unary(MethodListMediaItems, LockerServer.ListMediaItems),
		unary(MethodDeleteMediaItem, LockerServer.DeleteMediaItem),
		unary(MethodPrepareUpload, LockerServer.PrepareUpload),
		unary(MethodGetDownloadURL, LockerServer.GetDownloadURL),
		unary(MethodRemoveObject, LockerServer.RemoveObject),
	},
	Streams: []grpc.StreamDesc{
		subscription(MethodOnCreateMediaItem, LockerServer.OnCreateMediaItem),
		subscription(MethodOnDeleteMediaItem, LockerServer.OnDeleteMediaItem),
	},
	Metadata: "safelocker/v1/locker",
}
