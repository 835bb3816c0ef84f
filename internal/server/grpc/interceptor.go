package grpc

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/server/auth"
	"github.com/dmitrijs2005/safelocker/internal/wire"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// publicMethods need no access token.
var publicMethods = map[string]bool{
	wire.FullMethod(wire.MethodPing):                  true,
	wire.FullMethod(wire.MethodSignUp):                true,
	wire.FullMethod(wire.MethodConfirmSignUp):         true,
	wire.FullMethod(wire.MethodSignIn):                true,
	wire.FullMethod(wire.MethodRefreshToken):          true,
	wire.FullMethod(wire.MethodSignOut):               true,
	wire.FullMethod(wire.MethodForgotPassword):        true,
	wire.FullMethod(wire.MethodConfirmForgotPassword): true,
}

func userIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(userIDKey).(string)
	if !ok || id == "" {
		return "", status.Error(codes.Unauthenticated, "missing user")
	}
	return id, nil
}

// authenticate puts the user id of the access token found in ctx metadata
// into the returned context.
func (s *GRPCServer) authenticate(ctx context.Context) (context.Context, error) {
	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get("access_token")
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	}

	return context.WithValue(ctx, userIDKey, userID), nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}
	ctx, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

type authStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (a *authStream) Context() context.Context { return a.ctx }

func (s *GRPCServer) streamAccessTokenInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authenticate(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &authStream{ServerStream: ss, ctx: ctx})
}

// methodLimiter keeps one token bucket per public method. Ping is exempt.
type methodLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newMethodLimiter(limit rate.Limit, burst int) *methodLimiter {
	return &methodLimiter{limit: limit, burst: burst, limiters: map[string]*rate.Limiter{}}
}

func (m *methodLimiter) allow(method string) bool {
	if m.limit <= 0 || !publicMethods[method] || method == wire.FullMethod(wire.MethodPing) {
		return true
	}
	m.mu.Lock()
	l, ok := m.limiters[method]
	if !ok {
		l = rate.NewLimiter(m.limit, m.burst)
		m.limiters[method] = l
	}
	m.mu.Unlock()
	return l.Allow()
}

func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !s.limiter.allow(info.FullMethod) {
		s.logger.Warn(ctx, "Rate limited", "method", info.FullMethod)
		return nil, status.Error(codes.ResourceExhausted, "Attempt limit exceeded, please try after some time.")
	}
	return handler(ctx, req)
}
