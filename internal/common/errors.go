package common

import "errors"

// Token lifecycle errors.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
