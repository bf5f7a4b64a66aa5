// Package cli provides the interactive command-line client.
//
// It wires configuration, the local token store, the API client and the
// session manager, and renders one view per route:
//
//   - /               landing, or straight to the dashboard when signed in
//   - /auth/login     login form
//   - /auth/register  registration form
//   - /dashboard      account details, protected by the route guard
//
// Background workers started by App.Run probe API connectivity, move the
// user off protected views when the session ends, and optionally serve
// Prometheus metrics. The REPL is started via App.Root(ctx), which blocks
// until the user exits. See App and runREPL for details.
package cli
