package auth

// Status is the terminal state of one poll loop. There is no non-terminal
// value here: "authorization pending" and "slow down" keep the loop running
// and never escape it.
type Status int

const (
	StatusAuthorized Status = iota
	StatusExpired
	StatusDenied
	StatusProtocolError
)

func (s Status) String() string {
	switch s {
	case StatusAuthorized:
		return "authorized"
	case StatusExpired:
		return "expired"
	case StatusDenied:
		return "denied"
	case StatusProtocolError:
		return "protocol error"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one device flow attempt.
type Outcome struct {
	Status Status
	Token  string         // set only when Status is StatusAuthorized
	Err    *ProtocolError // set only when Status is StatusProtocolError
}

func protocolOutcome(err *ProtocolError) Outcome {
	return Outcome{Status: StatusProtocolError, Err: err}
}
