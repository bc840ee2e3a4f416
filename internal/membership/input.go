package membership

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/ghaggin/smartsplit/internal/epoch"
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrDuplicate    = errors.New("email already added")
	ErrNoTargets    = errors.New("no email addresses to add")
)

// ValidationError is a token rejected at the input stage. It never reaches
// the server.
type ValidationError struct {
	Token string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Token == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Token, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func isSeparator(r rune) bool {
	switch r {
	case ',', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// Tokenize splits raw input on the keys that commit an email: enter, comma
// and space.
func Tokenize(raw string) []string {
	return strings.FieldsFunc(raw, isSeparator)
}

func normalize(token string) string {
	return strings.TrimRightFunc(strings.TrimSpace(token), isSeparator)
}

// Request is the ordered, deduplicated set of emails queued for one group.
// Results of a batch are applied to it only if it has not been reset or
// closed while the batch was in flight.
type Request struct {
	mu      sync.Mutex
	targets []string
	epoch   epoch.Counter
}

// NewRequest rebuilds a request from previously accepted targets. Entries
// that no longer validate are dropped.
func NewRequest(targets ...string) *Request {
	r := &Request{}
	for _, t := range targets {
		_ = r.Add(t)
	}
	return r
}

// Add queues one token. An empty token is ignored.
func (r *Request) Add(token string) error {
	email := normalize(token)
	if email == "" {
		return nil
	}
	if !ValidEmail(email) {
		return &ValidationError{Token: email, Err: ErrInvalidEmail}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.targets {
		if strings.EqualFold(t, email) {
			return &ValidationError{Token: email, Err: ErrDuplicate}
		}
	}
	r.targets = append(r.targets, email)
	return nil
}

// Feed tokenizes raw and adds every token, returning one error per rejected
// token.
func (r *Request) Feed(raw string) []error {
	var errs []error
	for _, token := range Tokenize(raw) {
		if err := r.Add(token); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (r *Request) Remove(email string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, t := range r.targets {
		if strings.EqualFold(t, email) {
			r.targets = append(r.targets[:i:i], r.targets[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Request) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.targets...)
}

func (r *Request) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.targets)
}

// Reset empties the queue and drops any batch still in flight.
func (r *Request) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.targets = nil
	r.epoch.Advance()
}

// Close marks the owner as gone; in-flight results are ignored.
func (r *Request) Close() {
	r.epoch.Advance()
}

func (r *Request) begin() ([]string, epoch.Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.targets...), r.epoch.Begin()
}

// apply replaces the queue with what is left to retry. It reports false when
// tag has been superseded.
func (r *Request) apply(tag epoch.Tag, res *Result) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.epoch.Current(tag) {
		return false
	}

	switch res.Status {
	case StatusComplete:
		r.targets = nil
		r.epoch.Advance()
	case StatusPartial:
		r.targets = res.FailedEmails()
	}
	return true
}
