package model

// VerificationState tracks how fresh the cached identity is relative to the
// server.
type VerificationState int

const (
	Unverified VerificationState = iota
	Verifying
	Verified
	Rejected
)

func (s VerificationState) String() string {
	switch s {
	case Unverified:
		return "unverified"
	case Verifying:
		return "verifying"
	case Verified:
		return "verified"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Session is a point-in-time copy of the client's belief about who is logged
// in. Identity is nil iff Token is empty.
type Session struct {
	Token    string
	Identity *User
	State    VerificationState
}

func (s Session) LoggedIn() bool {
	return s.Identity != nil
}

// Provisional reports whether a logged-in answer still awaits confirmation
// from the server.
func (s Session) Provisional() bool {
	return s.LoggedIn() && s.State != Verified
}
