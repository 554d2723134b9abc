// Package client talks to the gophauth server on behalf of the CLI.
//
// APIClient wraps the JSON API under /api/auth. It keeps the tokens of the
// current session in memory and refreshes an expired access token once before
// giving up. HealthClient probes the gRPC health service so the CLI can tell
// whether the server is reachable.
//
// Failures are reported as *APIError (the server answered with an error
// body) or wrap ErrUnavailable (the server could not be reached). Use
// errors.Is / errors.As to tell them apart.
package client
