package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/dmitrijs2005/safelocker/internal/wire"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// startBufconn serves f over an in-memory listener and returns a connection.
func startBufconn(t *testing.T, f *fixture) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return conn
}

func bearer(ctx context.Context, tok string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "access_token", tok)
}

func TestServer_RoundTrip(t *testing.T) {
	f := newFixture(t, testConfig())
	c := wire.NewLockerClient(startBufconn(t, f))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ping, err := c.Ping(ctx, &wire.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "OK", ping.Status)

	in, err := c.SignIn(ctx, &wire.SignInRequest{Email: "ann@example.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "u1", in.User.UserID)

	_, err = c.ListMediaItems(ctx, &wire.ListMediaItemsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = c.ListMediaItems(bearer(ctx, token(t, "u1", -time.Minute)), &wire.ListMediaItemsRequest{})
	st := status.Convert(err)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, "token expired", st.Message())

	authCtx := bearer(ctx, token(t, "u1", time.Minute))
	key := media.NewKey(media.Videos, "clip.mp4")
	it, err := c.CreateMediaItem(authCtx, &wire.CreateMediaItemRequest{Filename: "clip.mp4", Key: key, FileType: "video/mp4", Folder: "videos", Size: 9})
	require.NoError(t, err)
	assert.Equal(t, key, it.Key)

	list, err := c.ListMediaItems(authCtx, &wire.ListMediaItemsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "clip.mp4", list.Items[0].Filename)
	assert.EqualValues(t, 9, list.Items[0].Size)

	up, err := c.PrepareUpload(authCtx, &wire.PrepareUploadRequest{Key: key, ContentType: "video/mp4", Size: 9})
	require.NoError(t, err)
	assert.Contains(t, up.URL, "private/u1/"+key)

	method := wire.FullMethod(wire.MethodPing)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RequestsTotal.WithLabelValues(method, "OK")))
}

func recvItem(t *testing.T, stream grpc.ClientStream) *media.Item {
	t.Helper()
	it := new(media.Item)
	require.NoError(t, stream.RecvMsg(it))
	return it
}

func openSubscription(t *testing.T, ctx context.Context, c *grpc.ClientConn, method string) grpc.ClientStream {
	t.Helper()
	desc := &grpc.StreamDesc{StreamName: method, ServerStreams: true}
	stream, err := c.NewStream(ctx, desc, wire.FullMethod(method), wire.CallOption())
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(&wire.Empty{}))
	require.NoError(t, stream.CloseSend())
	return stream
}

func TestServer_Subscriptions(t *testing.T) {
	f := newFixture(t, testConfig())
	conn := startBufconn(t, f)
	api := wire.NewLockerClient(conn)

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()
	u1 := bearer(callCtx, token(t, "u1", time.Minute))
	u2 := bearer(callCtx, token(t, "u2", time.Minute))

	created := openSubscription(t, u1, conn, wire.MethodOnCreateMediaItem)
	deleted := openSubscription(t, u1, conn, wire.MethodOnDeleteMediaItem)
	openSubscription(t, u2, conn, wire.MethodOnCreateMediaItem)

	// subscriptions register asynchronously
	require.Eventually(t, func() bool {
		return f.catalog.subscriptions.Load() == 3
	}, 2*time.Second, 10*time.Millisecond)

	key := media.NewKey(media.Photos, "a.png")
	it, err := api.CreateMediaItem(u1, &wire.CreateMediaItemRequest{Filename: "a.png", Key: key, FileType: "image/png", Folder: "photos", Size: 1})
	require.NoError(t, err)
	assert.Equal(t, it.ID, recvItem(t, created).ID)

	_, err = api.DeleteMediaItem(u1, &wire.DeleteMediaItemRequest{ID: it.ID})
	require.NoError(t, err)
	assert.Equal(t, it.ID, recvItem(t, deleted).ID)

	// subscriptions require a token
	noAuth := openSubscription(t, callCtx, conn, wire.MethodOnCreateMediaItem)
	err = noAuth.RecvMsg(new(media.Item))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServe_StopsWithOpenSubscription(t *testing.T) {
	f := newFixture(t, testConfig())
	lis := bufconn.Listen(1 << 20)

	serveCtx, stop := context.WithCancel(context.Background())
	defer stop()
	done := make(chan error, 1)
	go func() { done <- f.server.serve(serveCtx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()
	stream := openSubscription(t, bearer(callCtx, token(t, "u1", time.Minute)), conn, wire.MethodOnCreateMediaItem)

	require.Eventually(t, func() bool {
		return f.catalog.subscriptions.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return while a subscription was open")
	}

	err = stream.RecvMsg(new(media.Item))
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestStop_CutsOffAfterDrainTimeout(t *testing.T) {
	f := newFixture(t, testConfig())
	f.server.drainTimeout = 50 * time.Millisecond
	f.catalog.hold = make(chan struct{})
	defer close(f.catalog.hold)

	lis := bufconn.Listen(1 << 20)
	srv := f.server.newServer()
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	// a subscription stuck before it reaches the shutdown select
	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()
	openSubscription(t, bearer(callCtx, token(t, "u1", time.Minute)), conn, wire.MethodOnCreateMediaItem)
	require.Eventually(t, func() bool {
		return f.catalog.subscriptions.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		f.server.stop(srv)
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("stop did not return after the drain timeout")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := newFixture(t, testConfig()).server

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.EndpointAddrGRPC = "127.0.0.1:99999"
	srv := newFixture(t, cfg).server

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.Error(t, srv.Run(ctx))
}
