package membership

import (
	"fmt"
	"strings"

	"github.com/ghaggin/smartsplit/internal/api"
)

type State int

const (
	Pending State = iota
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

type Reason int

const (
	ReasonNone Reason = iota
	// ReasonNotFound: no account is registered for the email.
	ReasonNotFound
	// ReasonBadRequest: the group refused the user, usually because they
	// are already a member.
	ReasonBadRequest
	ReasonUnknown
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotFound:
		return "not found"
	case ReasonBadRequest:
		return "bad request"
	default:
		return "unknown"
	}
}

const (
	notFoundDetail      = "User not found - they may need to register first"
	alreadyMemberDetail = "User may already be in the group"
)

// Outcome is the terminal state of one email's pipeline.
type Outcome struct {
	Email  string
	State  State
	Reason Reason
	// Detail is the text shown to the user for a failure.
	Detail string
	Err    error
}

type step int

const (
	stepResolve step = iota
	stepAttach
)

func succeeded(email string) Outcome {
	return Outcome{Email: email, State: Succeeded}
}

func failed(email string, s step, err error) Outcome {
	o := Outcome{Email: email, State: Failed, Err: err}

	kind := api.KindOf(err)
	switch {
	case s == stepResolve && kind == api.KindNotFound:
		o.Reason = ReasonNotFound
		o.Detail = notFoundDetail
	case s == stepAttach && kind == api.KindBadRequest:
		o.Reason = ReasonBadRequest
		o.Detail = api.ServerMessage(err)
		if o.Detail == "" {
			o.Detail = alreadyMemberDetail
		}
	default:
		o.Reason = ReasonUnknown
		o.Detail = api.MessageOf(err)
	}

	return o
}

type Status int

const (
	StatusComplete Status = iota
	StatusPartial
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusPartial:
		return "partial"
	default:
		return "failed"
	}
}

// Result is the joint outcome of a batch, in target order.
type Result struct {
	Status   Status
	Outcomes []Outcome
	Message  string
	// Skipped is the leftover text's rejection when it repeated a queued
	// email.
	Skipped error
}

func newResult(outcomes []Outcome) *Result {
	res := &Result{Outcomes: outcomes}

	ok := len(res.SucceededEmails())
	failures := res.Failures()

	switch {
	case len(failures) == 0:
		res.Status = StatusComplete
		res.Message = fmt.Sprintf("Added %d %s successfully.", ok, members(ok))
	case ok > 0:
		res.Status = StatusPartial
		parts := make([]string, len(failures))
		for i, f := range failures {
			parts[i] = fmt.Sprintf("%s (%s)", f.Email, f.Detail)
		}
		res.Message = fmt.Sprintf("Added %d %s successfully. Failed to add: %s",
			ok, members(ok), strings.Join(parts, ", "))
	default:
		res.Status = StatusFailed
		lines := make([]string, len(failures))
		for i, f := range failures {
			lines[i] = fmt.Sprintf("%s: %s", f.Email, f.Detail)
		}
		res.Message = "Failed to add any members:\n" + strings.Join(lines, "\n")
	}

	return res
}

func members(n int) string {
	if n == 1 {
		return "member"
	}
	return "members"
}

func (r *Result) SucceededEmails() []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.State == Succeeded {
			out = append(out, o.Email)
		}
	}
	return out
}

func (r *Result) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.State == Failed {
			out = append(out, o)
		}
	}
	return out
}

func (r *Result) FailedEmails() []string {
	var out []string
	for _, o := range r.Failures() {
		out = append(out, o.Email)
	}
	return out
}
