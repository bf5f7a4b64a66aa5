// Package client talks to the authentication API.
//
// # Overview
//
// The package provides:
//  1. Transport, an HTTP request issuer bound to one base URL with an
//     ordered pipeline of request stages (run before sending) and response
//     stages (run after every exchange, successful or not).
//  2. The standard stages: BearerToken, RequestID, ExpireOnUnauthorized,
//     LogExchange and ObserveExchange. New assembles them so that every call,
//     including the ones made while restoring a session, is decorated and
//     intercepted the same way.
//  3. A typed API contract (Client) and its REST implementation (RESTClient):
//     Register, Login, Me, UpdateProfile and Ping.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     SQLite file that holds the token.
//
// # Error Handling
//
// Failures are returned as errors callers match with errors.Is / errors.As:
// ErrUnavailable when no response was received, *APIError for non-2xx
// responses, and ErrUnauthorized (wrapped by a 401 *APIError).
package client
