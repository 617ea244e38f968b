package domain

import "time"

const (
	// DefaultTokenTTL is the lifetime of every issued session token.
	DefaultTokenTTL = 120 * time.Minute
	// MinSecretLength is the shortest HMAC signing secret accepted at startup.
	MinSecretLength = 32
)
