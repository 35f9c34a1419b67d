// Package cli is the interactive Mi Árbol en el Mundo command-line client.
//
// It wires configuration, the local session store (SQLite or Redis), the
// REST client and the services into an App, then runs a REPL. The REPL
// plays the part of the browser router: commands that need a session are
// refused while anonymous, and role-gated commands are refused for other
// roles.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, runREPL and registerCommands for details.
package cli
