// Package client is the single outbound channel from the Mi Árbol client to
// its REST backend.
//
// # Overview
//
// The package provides:
//  1. HTTPClient: JSON over HTTP with a bearer access token on every
//     authenticated request. A 401 on such a request triggers one silent
//     token refresh (shared by concurrent callers) and one replay of the
//     original request; an unrecoverable 401 tells the SessionListener that
//     the session is gone.
//  2. The backend surface as small interfaces (AuthAPI, TreeAPI,
//     FeatureAPI) so services can be tested against fakes.
//  3. Local store bootstrap (InitDatabase, RunMigrations) for the SQLite
//     file that keeps the session between runs.
//
// # Error Handling
//
// Every failure crossing the HTTP boundary becomes an *APIError carrying an
// ErrorInfo, a small tagged union describing where the human-readable text
// came from. Describe turns any error into the text shown to the user.
// Sentinels ErrUnauthorized, ErrUnavailable and ErrNotFound match with
// errors.Is.
package client
