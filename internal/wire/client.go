package wire

import (
	"context"

	"github.com/dmitrijs2005/safelocker/internal/media"
	"google.golang.org/grpc"
)

// LockerClient is the client API of the Locker service.
type LockerClient struct {
	cc grpc.ClientConnInterface
}

func NewLockerClient(cc grpc.ClientConnInterface) *LockerClient {
	return &LockerClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, FullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LockerClient) Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *LockerClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*SignUpResponse, error) {
	return invoke[SignUpResponse](ctx, c.cc, MethodSignUp, in, opts)
}

func (c *LockerClient) ConfirmSignUp(ctx context.Context, in *ConfirmSignUpRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodConfirmSignUp, in, opts)
}

func (c *LockerClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SignInResponse, error) {
	return invoke[SignInResponse](ctx, c.cc, MethodSignIn, in, opts)
}

func (c *LockerClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *LockerClient) SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodSignOut, in, opts)
}

func (c *LockerClient) ForgotPassword(ctx context.Context, in *ForgotPasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodForgotPassword, in, opts)
}

func (c *LockerClient) ConfirmForgotPassword(ctx context.Context, in *ConfirmForgotPasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodConfirmForgotPassword, in, opts)
}

func (c *LockerClient) CurrentUser(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*User, error) {
	return invoke[User](ctx, c.cc, MethodCurrentUser, in, opts)
}

func (c *LockerClient) CreateMediaItem(ctx context.Context, in *CreateMediaItemRequest, opts ...grpc.CallOption) (*media.Item, error) {
	return invoke[media.Item](ctx, c.cc, MethodCreateMediaItem, in, opts)
}

func (c *LockerClient) ListMediaItems(ctx context.Context, in *ListMediaItemsRequest, opts ...grpc.CallOption) (*ListMediaItemsResponse, error) {
	return invoke[ListMediaItemsResponse](ctx, c.cc, MethodListMediaItems, in, opts)
}

func (c *LockerClient) DeleteMediaItem(ctx context.Context, in *DeleteMediaItemRequest, opts ...grpc.CallOption) (*media.Item, error) {
	return invoke[media.Item](ctx, c.cc, MethodDeleteMediaItem, in, opts)
}

func (c *LockerClient) PrepareUpload(ctx context.Context, in *PrepareUploadRequest, opts ...grpc.CallOption) (*PrepareUploadResponse, error) {
	return invoke[PrepareUploadResponse](ctx, c.cc, MethodPrepareUpload, in, opts)
}

func (c *LockerClient) GetDownloadURL(ctx context.Context, in *ObjectRequest, opts ...grpc.CallOption) (*URLResponse, error) {
	return invoke[URLResponse](ctx, c.cc, MethodGetDownloadURL, in, opts)
}

func (c *LockerClient) RemoveObject(ctx context.Context, in *ObjectRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodRemoveObject, in, opts)
}

// ItemReceiver is the client side of a subscription.
type ItemReceiver interface {
	Recv() (*media.Item, error)
}

type itemReceiver struct {
	grpc.ClientStream
}

func (r *itemReceiver) Recv() (*media.Item, error) {
	it := new(media.Item)
	if err := r.ClientStream.RecvMsg(it); err != nil {
		return nil, err
	}
	return it, nil
}

func (c *LockerClient) subscribe(ctx context.Context, desc *grpc.StreamDesc, opts []grpc.CallOption) (ItemReceiver, error) {
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	stream, err := c.cc.NewStream(ctx, desc, FullMethod(desc.StreamName), opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &itemReceiver{stream}, nil
}

func (c *LockerClient) OnCreateMediaItem(ctx context.Context, opts ...grpc.CallOption) (ItemReceiver, error) {
	return c.subscribe(ctx, &ServiceDesc.Streams[0], opts)
}

func (c *LockerClient) OnDeleteMediaItem(ctx context.Context, opts ...grpc.CallOption) (ItemReceiver, error) {
	return c.subscribe(ctx, &ServiceDesc.Streams[1], opts)
}
