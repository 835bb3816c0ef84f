// Package common contains shared constants and sentinel errors used across
// Safe Locker components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// EnvPrefix prefixes environment variables that override configuration,
// e.g. SAFELOCKER_DATABASE_DSN.
const EnvPrefix = "SAFELOCKER"
