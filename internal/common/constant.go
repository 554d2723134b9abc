// Package common contains shared constants and sentinel errors used across
// gophauth components.
package common

// AuthorizationHeaderName is the HTTP header carrying the access token
// as "Bearer <token>".
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "

// APIPrefix is the path prefix of the authentication HTTP API.
const APIPrefix = "/api/auth"
