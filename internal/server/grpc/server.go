// Package grpc exposes the identity, catalog and object services over the
// safelocker.v1.Locker gRPC service.
package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/dmitrijs2005/safelocker/internal/server/config"
	"github.com/dmitrijs2005/safelocker/internal/server/events"
	"github.com/dmitrijs2005/safelocker/internal/server/metrics"
	"github.com/dmitrijs2005/safelocker/internal/server/models"
	"github.com/dmitrijs2005/safelocker/internal/server/services"
	"github.com/dmitrijs2005/safelocker/internal/wire"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

type identitySvc interface {
	SignUp(ctx context.Context, name, email, password string) (*models.User, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	SignIn(ctx context.Context, email, password string) (*models.User, *services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	SignOut(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

type catalogSvc interface {
	Create(ctx context.Context, owner string, in services.NewItem) (*media.Item, error)
	List(ctx context.Context, owner string, q services.ListQuery) (*services.Page, error)
	Delete(ctx context.Context, owner, id string) (*media.Item, error)
	Subscribe(ctx context.Context, owner string, kind events.Kind) (<-chan media.Item, func(), error)
}

type objectSvc interface {
	PrepareUpload(ctx context.Context, owner, key, contentType string, size int64) (string, time.Time, error)
	DownloadURL(ctx context.Context, owner, key string) (string, time.Time, error)
	Remove(ctx context.Context, owner, key string) error
}

var _ wire.LockerServer = (*GRPCServer)(nil)

// drainTimeout bounds GracefulStop. Connections still open afterwards are
// closed with Stop.
const drainTimeout = 10 * time.Second

type GRPCServer struct {
	address   string
	identity  identitySvc
	catalog   catalogSvc
	objects   objectSvc
	metrics   *metrics.Metrics
	limiter   *methodLimiter
	logger    logging.Logger
	jwtSecret []byte

	// shutdown is closed when serving stops; open subscriptions end on it.
	shutdown     chan struct{}
	stopOnce     sync.Once
	drainTimeout time.Duration
}

func NewGRPCServer(cfg *config.Config, l logging.Logger, id identitySvc, cat catalogSvc, obj objectSvc, mt *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address:   cfg.EndpointAddrGRPC,
		identity:  id,
		catalog:   cat,
		objects:   obj,
		metrics:   mt,
		limiter:   newMethodLimiter(rate.Limit(cfg.AuthRateLimit), cfg.AuthRateBurst),
		logger:    l.With("module", "grpc_server"),
		jwtSecret: []byte(cfg.SecretKey),

		shutdown:     make(chan struct{}),
		drainTimeout: drainTimeout,
	}
}

// newServer builds a grpc.Server with the interceptor chain and the Locker
// service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.metrics.UnaryInterceptor, s.rateLimitInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.metrics.StreamInterceptor, s.streamAccessTokenInterceptor),
	)
	wire.RegisterLockerServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.stop(srv)
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

// stop ends open subscriptions, then drains the remaining calls. Calls still
// running after drainTimeout are cut off.
func (s *GRPCServer) stop(srv *grpc.Server) {
	s.stopOnce.Do(func() { close(s.shutdown) })

	drained := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(drained)
	}()

	t := time.NewTimer(s.drainTimeout)
	defer t.Stop()
	select {
	case <-drained:
	case <-t.C:
		s.logger.Warn(context.Background(), "gRPC drain timed out, closing connections", "timeout", s.drainTimeout)
		srv.Stop()
		<-drained
	}
}
