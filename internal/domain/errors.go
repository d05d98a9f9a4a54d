package domain

import "errors"

var (
	// ErrNotFound is returned when the upstream has no such record
	ErrNotFound = errors.New("not found")

	// ErrRateLimited is returned when the upstream answered 429
	ErrRateLimited = errors.New("rate limit exceeded, please try again later")

	// ErrUpstreamTimeout is returned when the upstream did not answer in time
	ErrUpstreamTimeout = errors.New("request timeout, please try again")

	// ErrUpstream covers every other upstream failure
	ErrUpstream = errors.New("failed to fetch data from FBI API")

	// ErrEmptyQuery is returned for a search without a query
	ErrEmptyQuery = errors.New("search query is required")

	// ErrInvalidCredentials is returned by login for a bad username/password
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for a malformed, forged or expired token
	ErrInvalidToken = errors.New("invalid or expired token")
)
