package auth

import (
	"context"
	"strings"
)

// Classic tokens start with ghp_, fine-grained ones with github_pat_.
var patPrefixes = []string{"ghp_", "github_pat_"}

const minPATLength = 12

// CheckPATFormat performs the offline shape check on a personal access token.
// It catches obvious paste mistakes before any network call is made.
func CheckPATFormat(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < minPATLength {
		return ErrInvalidTokenFormat
	}
	for _, prefix := range patPrefixes {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}
	return ErrInvalidTokenFormat
}

// ValidatePAT checks the token's format and then confirms it against the
// identity endpoint. This is the alternative to the device flow for users
// who bring their own token.
func (f *Flow) ValidatePAT(ctx context.Context, token string) (Identity, error) {
	if err := CheckPATFormat(token); err != nil {
		return Identity{}, err
	}
	return f.Validate(ctx, strings.TrimSpace(token))
}
