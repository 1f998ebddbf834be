package auth

import "fmt"

// DeviceSession holds the result of a device authorization request.
// It contains the code to show the user and the parameters needed for polling.
// A session is created once per authentication attempt and never mutated.
type DeviceSession struct {
	DeviceCode      string
	UserCode        string
	VerificationURI string
	ExpiresIn       int // seconds until the device code expires
	Interval        int // minimum polling interval in seconds
}

// validate rejects sessions that cannot be polled safely. A non-positive
// interval or lifetime would make the attempt budget meaningless.
func (s DeviceSession) validate() error {
	if s.Interval <= 0 {
		return fmt.Errorf("device session has non-positive interval %d", s.Interval)
	}
	if s.ExpiresIn <= 0 {
		return fmt.Errorf("device session has non-positive expires_in %d", s.ExpiresIn)
	}
	return nil
}

// Identity identifies the GitHub account a token belongs to.
type Identity struct {
	Login string
	Name  string
	Email string
}
