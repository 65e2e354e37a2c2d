// Package common contains shared constants and sentinel errors used across
// filevault components.
package common

// AuthorizationHeaderName is the HTTP header carrying the access token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only authorization scheme accepted on protected routes.
const BearerScheme = "Bearer"

// TokenType is reported to clients alongside an issued access token.
const TokenType = "bearer"
