// Package common contains shared constants and sentinel errors used across
// the Mi Árbol client components.
package common

const (
	// AuthorizationHeaderName carries the bearer access token on outbound requests.
	AuthorizationHeaderName = "Authorization"
	// RequestIDHeaderName correlates a client request with backend logs.
	RequestIDHeaderName = "X-Request-ID"
	// UserAgent identifies the client to the backend.
	UserAgent = "MiArbol-CLI/1.0"
)

// Keys of the persisted client-side session state. All three are written
// together on login/refresh and removed together on logout.
const (
	StorageKeyToken        = "token"
	StorageKeyRefreshToken = "refreshToken"
	StorageKeyUser         = "user"
)

// DefaultErrorMessage is shown when no better description of a failure exists.
const DefaultErrorMessage = "Ha ocurrido un error"
