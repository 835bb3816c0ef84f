// Package client is the gRPC implementation of the collaborators the Safe
// Locker client depends on.
//
// # Overview
//
// GRPCClient talks to the Locker service and satisfies session.Identity,
// locker.ObjectStore, locker.Catalog and locker.Watcher. It keeps the token
// pair in memory, injects the access token through an interceptor,
// transparently refreshes an expired access token once per call, and maps
// gRPC status codes to sentinel errors.
//
// Object bytes never pass through the service: Put asks for a presigned URL
// and streams the body to it with netx.
//
// # Error Handling
//
// Failures are reported as ErrUnavailable, ErrUnauthorized, ErrNotFound,
// ErrAlreadyExists or ErrInvalidArgument and can be matched with errors.Is.
// The text of such an error is the message the server gave.
package client
