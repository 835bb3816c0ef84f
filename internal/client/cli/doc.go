// Package cli provides the interactive Safe Locker command-line client.
//
// It wires configuration, the chosen backend (gRPC or in-memory), the
// session service, the uploader and the library into a REPL. Typical flow:
// restore a previous session if any, sign in or sign up, then upload, list,
// fetch and delete files.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
