package auth

import "time"

// DefaultTokenTTL keeps a staff session valid for one shift.
const DefaultTokenTTL = 12 * time.Hour

// Strategy issues and verifies staff session tokens.
type Strategy interface {
	IssueToken(staffID int64) (string, error)
	ParseToken(token string) (int64, error)
	Name() string
}

type Options struct {
	TTL time.Duration
	Now func() time.Time
}
