package client

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/dmitrijs2005/safelocker/internal/client/locker"
	"github.com/dmitrijs2005/safelocker/internal/client/session"
	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/dmitrijs2005/safelocker/internal/netx"
	"github.com/dmitrijs2005/safelocker/internal/wire"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type tokenRefresher interface {
	RefreshToken(ctx context.Context, in *wire.RefreshTokenRequest, opts ...grpc.CallOption) (*wire.RefreshTokenResponse, error)
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	api         *wire.LockerClient
	refresher   tokenRefresher
	uploader    *netx.Uploader
	logger      logging.Logger

	mu           sync.RWMutex
	accessToken  string
	refreshToken string

	// refreshMu serialises refreshes so concurrent calls that hit an expired
	// token rotate the pair only once.
	refreshMu sync.Mutex
}

var (
	_ session.Identity   = (*GRPCClient)(nil)
	_ locker.ObjectStore = (*GRPCClient)(nil)
	_ locker.Catalog     = (*GRPCClient)(nil)
	_ locker.Watcher     = (*GRPCClient)(nil)
)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) tokens() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken, c.refreshToken
}

func (c *GRPCClient) setTokens(access, refresh string) {
	c.mu.Lock()
	c.accessToken, c.refreshToken = access, refresh
	c.mu.Unlock()
}

// refresh rotates the token pair unless another call already replaced stale.
func (c *GRPCClient) refresh(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	access, refresh := c.tokens()
	if access != stale {
		return nil
	}
	if refresh == "" {
		return ErrUnauthorized
	}

	resp, err := c.refresher.RefreshToken(ctx, &wire.RefreshTokenRequest{RefreshToken: refresh})
	if err != nil {
		return err
	}
	c.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, _ := c.tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) || method == wire.FullMethod(wire.MethodRefreshToken) {
		return err
	}

	if rerr := c.refresh(ctx, access); rerr != nil {
		return err
	}

	// tokens refreshed, retry with the new access token
	access, _ = c.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

func (c *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	access, _ := c.tokens()
	return streamer(withAccessToken(ctx, access), desc, cc, method, opts...)
}

// NewGRPCClient connects to the Locker service at endpointURL. Extra dial
// options are appended after the defaults.
func NewGRPCClient(endpointURL string, logger logging.Logger, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		uploader:    netx.NewUploader(nil),
		logger:      logger.With("module", "grpcclient"),
	}
	if err := c.initGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *GRPCClient) initGRPCClient(opts ...grpc.DialOption) error {
	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithStreamInterceptor(c.streamAccessTokenInterceptor),
		grpc.WithDefaultCallOptions(wire.CallOption()),
	}, opts...)

	conn, err := grpc.NewClient(c.endpointURL, dial...)
	if err != nil {
		return err
	}
	c.conn = conn
	c.api = wire.NewLockerClient(conn)
	c.refresher = c.api
	return nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.api.Ping(ctx, &wire.Empty{})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func toSessionUser(u *wire.User) *session.User {
	return &session.User{Username: u.Username, UserID: u.UserID, Name: u.Name, Email: u.Email}
}

func (c *GRPCClient) CurrentUser(ctx context.Context) (*session.User, error) {
	if access, _ := c.tokens(); access == "" {
		return nil, ErrUnauthorized
	}
	u, err := c.api.CurrentUser(ctx, &wire.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return toSessionUser(u), nil
}

func (c *GRPCClient) SignIn(ctx context.Context, email, password string) (*session.User, error) {
	resp, err := c.api.SignIn(ctx, &wire.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	c.setTokens(resp.AccessToken, resp.RefreshToken)
	return toSessionUser(&resp.User), nil
}

func (c *GRPCClient) SignUp(ctx context.Context, name, email, password string) error {
	_, err := c.api.SignUp(ctx, &wire.SignUpRequest{Name: name, Email: email, Password: password})
	return mapError(err)
}

func (c *GRPCClient) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := c.api.ConfirmSignUp(ctx, &wire.ConfirmSignUpRequest{Email: email, Code: code})
	return mapError(err)
}

// SignOut revokes the refresh token on the server. Local tokens are dropped
// regardless of the outcome.
func (c *GRPCClient) SignOut(ctx context.Context) error {
	_, refresh := c.tokens()
	c.setTokens("", "")
	if refresh == "" {
		return nil
	}
	_, err := c.api.SignOut(ctx, &wire.SignOutRequest{RefreshToken: refresh})
	return mapError(err)
}

func (c *GRPCClient) ResetPassword(ctx context.Context, email string) error {
	_, err := c.api.ForgotPassword(ctx, &wire.ForgotPasswordRequest{Email: email})
	return mapError(err)
}

func (c *GRPCClient) ConfirmResetPassword(ctx context.Context, email, code, newPassword string) error {
	_, err := c.api.ConfirmForgotPassword(ctx, &wire.ConfirmForgotPasswordRequest{Email: email, Code: code, NewPassword: newPassword})
	return mapError(err)
}

// Put obtains a presigned URL for key and streams body to it.
func (c *GRPCClient) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, progress func(loaded, total int64)) (string, error) {
	resp, err := c.api.PrepareUpload(ctx, &wire.PrepareUploadRequest{Key: key, ContentType: contentType, Size: size})
	if err != nil {
		return "", mapError(err)
	}
	if err := c.uploader.Put(ctx, resp.URL, body, size, contentType, progress); err != nil {
		return "", err
	}
	return resp.Key, nil
}

func (c *GRPCClient) URL(ctx context.Context, key string) (string, error) {
	resp, err := c.api.GetDownloadURL(ctx, &wire.ObjectRequest{Key: key})
	if err != nil {
		return "", mapError(err)
	}
	return resp.URL, nil
}

func (c *GRPCClient) Remove(ctx context.Context, key string) error {
	_, err := c.api.RemoveObject(ctx, &wire.ObjectRequest{Key: key})
	return mapError(err)
}

func (c *GRPCClient) Create(ctx context.Context, in locker.NewItem) (*media.Item, error) {
	it, err := c.api.CreateMediaItem(ctx, &wire.CreateMediaItemRequest{
		Filename: in.Filename,
		Key:      in.Key,
		FileType: in.FileType,
		Folder:   in.Folder,
		Size:     in.Size,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return it, nil
}

func (c *GRPCClient) List(ctx context.Context, q locker.ListQuery) (*locker.Page, error) {
	resp, err := c.api.ListMediaItems(ctx, &wire.ListMediaItemsRequest{Folder: q.Folder, Limit: q.Limit, NextToken: q.NextToken})
	if err != nil {
		return nil, mapError(err)
	}
	return &locker.Page{Items: resp.Items, NextToken: resp.NextToken}, nil
}

func (c *GRPCClient) Delete(ctx context.Context, id string) error {
	_, err := c.api.DeleteMediaItem(ctx, &wire.DeleteMediaItemRequest{ID: id})
	return mapError(err)
}

// Watch subscribes to created and deleted records. fn is called from one
// goroutine at a time. A subscription rejected for an expired token is
// retried once after a refresh. Watch returns nil when ctx ends.
func (c *GRPCClient) Watch(ctx context.Context, fn func(locker.Change)) error {
	access, _ := c.tokens()
	err := c.watch(ctx, fn)
	if isTokenExpired(err) && c.refresh(ctx, access) == nil {
		err = c.watch(ctx, fn)
	}
	if err != nil && ctx.Err() == nil {
		return mapError(err)
	}
	return nil
}

func (c *GRPCClient) watch(ctx context.Context, fn func(locker.Change)) error {
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(sctx)

	created, err := c.api.OnCreateMediaItem(gctx)
	if err != nil {
		return err
	}
	deleted, err := c.api.OnDeleteMediaItem(gctx)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	pump := func(r wire.ItemReceiver, del bool) func() error {
		return func() error {
			for {
				it, err := r.Recv()
				if errors.Is(err, io.EOF) {
					return errSubscriptionClosed
				}
				if err != nil {
					return err
				}
				mu.Lock()
				fn(locker.Change{Deleted: del, Item: *it})
				mu.Unlock()
			}
		}
	}
	g.Go(pump(created, false))
	g.Go(pump(deleted, true))
	return g.Wait()
}
