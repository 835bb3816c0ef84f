package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/dmitrijs2005/safelocker/internal/server/events"
	"github.com/dmitrijs2005/safelocker/internal/server/models"
	"github.com/dmitrijs2005/safelocker/internal/server/services"
	"github.com/dmitrijs2005/safelocker/internal/wire"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC statuses. Messages meant for the user
// pass through; anything unexpected is logged and reported as Internal.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidCode):
		return status.Error(codes.InvalidArgument, common.Message(err, err.Error()))
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, common.Message(err, "not found"))
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, common.Message(err, "already exists"))
	case errors.Is(err, common.ErrUserNotConfirmed):
		return status.Error(codes.FailedPrecondition, common.Message(err, err.Error()))
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, common.Message(err, "unauthorized"))
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	s.logger.Error(ctx, "Request failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}

func toWireUser(u *models.User) *wire.User {
	return &wire.User{UserID: u.ID, Username: u.Email, Name: u.Name, Email: u.Email}
}

func (s *GRPCServer) Ping(ctx context.Context, _ *wire.Empty) (*wire.PingResponse, error) {
	return &wire.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) SignUp(ctx context.Context, req *wire.SignUpRequest) (*wire.SignUpResponse, error) {
	u, err := s.identity.SignUp(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, wire.MethodSignUp, err)
	}
	s.logger.Info(ctx, "Registered", "user_id", u.ID)
	return &wire.SignUpResponse{UserID: u.ID, NextStep: wire.NextStepConfirmSignUp}, nil
}

func (s *GRPCServer) ConfirmSignUp(ctx context.Context, req *wire.ConfirmSignUpRequest) (*wire.Empty, error) {
	if err := s.identity.ConfirmSignUp(ctx, req.Email, req.Code); err != nil {
		return nil, s.toStatus(ctx, wire.MethodConfirmSignUp, err)
	}
	return &wire.Empty{}, nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *wire.SignInRequest) (*wire.SignInResponse, error) {
	u, tokens, err := s.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, wire.MethodSignIn, err)
	}
	return &wire.SignInResponse{User: *toWireUser(u), AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *wire.RefreshTokenRequest) (*wire.RefreshTokenResponse, error) {
	tokens, err := s.identity.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, wire.MethodRefreshToken, err)
	}
	return &wire.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) SignOut(ctx context.Context, req *wire.SignOutRequest) (*wire.Empty, error) {
	if err := s.identity.SignOut(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, wire.MethodSignOut, err)
	}
	return &wire.Empty{}, nil
}

func (s *GRPCServer) ForgotPassword(ctx context.Context, req *wire.ForgotPasswordRequest) (*wire.Empty, error) {
	if err := s.identity.ForgotPassword(ctx, req.Email); err != nil {
		return nil, s.toStatus(ctx, wire.MethodForgotPassword, err)
	}
	return &wire.Empty{}, nil
}

func (s *GRPCServer) ConfirmForgotPassword(ctx context.Context, req *wire.ConfirmForgotPasswordRequest) (*wire.Empty, error) {
	if err := s.identity.ConfirmForgotPassword(ctx, req.Email, req.Code, req.NewPassword); err != nil {
		return nil, s.toStatus(ctx, wire.MethodConfirmForgotPassword, err)
	}
	return &wire.Empty{}, nil
}

func (s *GRPCServer) CurrentUser(ctx context.Context, _ *wire.Empty) (*wire.User, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.identity.CurrentUser(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, wire.MethodCurrentUser, err)
	}
	return toWireUser(u), nil
}

func (s *GRPCServer) CreateMediaItem(ctx context.Context, req *wire.CreateMediaItemRequest) (*media.Item, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	it, err := s.catalog.Create(ctx, userID, services.NewItem{
		Filename: req.Filename,
		Key:      req.Key,
		FileType: req.FileType,
		Folder:   req.Folder,
		Size:     req.Size,
	})
	if err != nil {
		return nil, s.toStatus(ctx, wire.MethodCreateMediaItem, err)
	}
	return it, nil
}

func (s *GRPCServer) ListMediaItems(ctx context.Context, req *wire.ListMediaItemsRequest) (*wire.ListMediaItemsResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	page, err := s.catalog.List(ctx, userID, services.ListQuery{Folder: req.Folder, Limit: req.Limit, NextToken: req.NextToken})
	if err != nil {
		return nil, s.toStatus(ctx, wire.MethodListMediaItems, err)
	}
	items := page.Items
	if items == nil {
		items = []media.Item{}
	}
	return &wire.ListMediaItemsResponse{Items: items, NextToken: page.NextToken}, nil
}

func (s *GRPCServer) DeleteMediaItem(ctx context.Context, req *wire.DeleteMediaItemRequest) (*media.Item, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	it, err := s.catalog.Delete(ctx, userID, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, wire.MethodDeleteMediaItem, err)
	}
	return it, nil
}

func (s *GRPCServer) PrepareUpload(ctx context.Context, req *wire.PrepareUploadRequest) (*wire.PrepareUploadResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	url, expires, err := s.objects.PrepareUpload(ctx, userID, req.Key, req.ContentType, req.Size)
	if err != nil {
		return nil, s.toStatus(ctx, wire.MethodPrepareUpload, err)
	}
	return &wire.PrepareUploadResponse{Key: req.Key, URL: url, ExpiresAt: expires}, nil
}

func (s *GRPCServer) GetDownloadURL(ctx context.Context, req *wire.ObjectRequest) (*wire.URLResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	url, expires, err := s.objects.DownloadURL(ctx, userID, req.Key)
	if err != nil {
		return nil, s.toStatus(ctx, wire.MethodGetDownloadURL, err)
	}
	return &wire.URLResponse{URL: url, ExpiresAt: expires}, nil
}

func (s *GRPCServer) RemoveObject(ctx context.Context, req *wire.ObjectRequest) (*wire.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.objects.Remove(ctx, userID, req.Key); err != nil {
		return nil, s.toStatus(ctx, wire.MethodRemoveObject, err)
	}
	return &wire.Empty{}, nil
}

func (s *GRPCServer) OnCreateMediaItem(_ *wire.Empty, stream wire.ItemStream) error {
	return s.subscribe(stream, events.KindCreated, wire.MethodOnCreateMediaItem)
}

func (s *GRPCServer) OnDeleteMediaItem(_ *wire.Empty, stream wire.ItemStream) error {
	return s.subscribe(stream, events.KindDeleted, wire.MethodOnDeleteMediaItem)
}

// subscribe forwards the caller's events until the client goes away or the
// server stops.
func (s *GRPCServer) subscribe(stream wire.ItemStream, kind events.Kind, method string) error {
	ctx := stream.Context()
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}

	ch, cancel, err := s.catalog.Subscribe(ctx, userID, kind)
	if err != nil {
		return s.toStatus(ctx, method, err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.shutdown:
			return status.Error(codes.Unavailable, "server shutting down")
		case it, ok := <-ch:
			if !ok {
				return status.Error(codes.Unavailable, "subscription closed")
			}
			if err := stream.Send(&it); err != nil {
				return err
			}
		}
	}
}
