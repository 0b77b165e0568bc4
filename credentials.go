package petal

import (
	"context"
	"crypto/subtle"
)

// StaticCredentials is the CredentialChecker used by deployments whose
// photo store holds no users table (the object-store backend). It
// compares against a single host-configured pair.
//
// Comparison is constant-time in both fields so the check leaks nothing
// about how much of either value matched.
type StaticCredentials struct {
	username string
	password string
}

// NewStaticCredentials returns a checker for the given account pair.
// The caller is expected to have already decoded any at-rest encoding.
func NewStaticCredentials(username, password string) *StaticCredentials {
	return &StaticCredentials{username: username, password: password}
}

func (c *StaticCredentials) Check(ctx context.Context, username, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.password)) == 1
	return userOK && passOK, nil
}
