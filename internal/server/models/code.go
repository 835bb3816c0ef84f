package models

import "time"

// CodePurpose tells confirmation codes and password reset codes apart.
type CodePurpose string

const (
	PurposeConfirm CodePurpose = "confirm"
	PurposeReset   CodePurpose = "reset"
)

// Code is a one-time code sent by mail. Only its hash is stored.
type Code struct {
	UserID  string
	Purpose CodePurpose
	Hash    string
	Expires time.Time
}
