// Package common contains constants and small helpers shared by the
// authclient packages.
package common

const (
	// AuthorizationHeader carries the bearer credential on outbound requests.
	AuthorizationHeader = "Authorization"

	// BearerScheme prefixes the access token in AuthorizationHeader.
	BearerScheme = "Bearer"

	// RequestIDHeader correlates a client request with server logs.
	RequestIDHeader = "X-Request-ID"

	// AccessTokenKey is the metadata key under which the bearer token is persisted.
	AccessTokenKey = "access_token"
)
