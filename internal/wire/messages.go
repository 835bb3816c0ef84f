package wire

import (
	"time"

	"github.com/dmitrijs2005/safelocker/internal/media"
)

type Empty struct{}

type PingResponse struct {
	Status string `json:"status"`
}

// User is the caller identity as seen by clients.
type User struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpResponse struct {
	UserID   string `json:"userId"`
	NextStep string `json:"nextStep"`
}

// NextStepConfirmSignUp tells the client a confirmation code was sent.
const NextStepConfirmSignUp = "CONFIRM_SIGN_UP"

type ConfirmSignUpRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ConfirmForgotPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

type CreateMediaItemRequest struct {
	Filename string `json:"filename"`
	Key      string `json:"key"`
	FileType string `json:"fileType"`
	Folder   string `json:"folder"`
	Size     int64  `json:"size"`
}

// ListMediaItemsRequest filters by folder when Folder is set.
type ListMediaItemsRequest struct {
	Folder    string `json:"folder,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	NextToken string `json:"nextToken,omitempty"`
}

type ListMediaItemsResponse struct {
	Items     []media.Item `json:"items"`
	NextToken string       `json:"nextToken,omitempty"`
}

type DeleteMediaItemRequest struct {
	ID string `json:"id"`
}

type PrepareUploadRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type PrepareUploadResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ObjectRequest struct {
	Key string `json:"key"`
}

type URLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
