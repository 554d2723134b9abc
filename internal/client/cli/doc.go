// Package cli provides the interactive gophauth command-line client.
//
// It wires configuration, the HTTP API client and the gRPC health probe into
// a REPL. A background watcher switches the prompt between online and
// offline as the server comes and goes.
//
// Commands: signup, signin, forgot, confirm, reset, refresh, signout, me,
// help, exit.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
