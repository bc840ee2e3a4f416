package membership

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ghaggin/smartsplit/internal/api"
	"github.com/ghaggin/smartsplit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeLedger resolves emails from users and records every call.
type fakeLedger struct {
	mu       sync.Mutex
	users    map[string]int64
	resolve  map[string]error
	attach   map[int64]error
	resolved []string
	attached []int64

	// gate, when set, holds every resolve until it is closed
	gate chan struct{}
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		users:   map[string]int64{},
		resolve: map[string]error{},
		attach:  map[int64]error{},
	}
}

func (f *fakeLedger) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.resolved = append(f.resolved, email)
	if err, ok := f.resolve[email]; ok {
		return nil, err
	}
	id, ok := f.users[email]
	if !ok {
		return nil, &api.Error{Kind: api.KindNotFound, Status: http.StatusNotFound}
	}
	return &model.User{ID: id, Email: email}, nil
}

func (f *fakeLedger) AddUserToGroup(_ context.Context, _ int64, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attached = append(f.attached, userID)
	return f.attach[userID]
}

func newMutator(t *testing.T, f *fakeLedger) *Mutator {
	return New(Params{Directory: f, Groups: f, Log: zaptest.NewLogger(t)})
}

func TestSubmit_complete(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	f := newFakeLedger()
	f.users["a@x.com"] = 1
	f.users["b@x.com"] = 2

	req := NewRequest("a@x.com", "b@x.com")
	res, err := newMutator(t, f).Submit(context.Background(), 9, req, "")
	require.NoError(err)

	assert.Equal(StatusComplete, res.Status)
	assert.Equal([]string{"a@x.com", "b@x.com"}, res.SucceededEmails())
	assert.Empty(res.Failures())
	assert.Zero(req.Len())
	assert.ElementsMatch([]int64{1, 2}, f.attached)
}

func TestSubmit_partial(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	f := newFakeLedger()
	f.users["ok@x.com"] = 1

	req := NewRequest("ok@x.com", "missing@x.com")
	res, err := newMutator(t, f).Submit(context.Background(), 9, req, "")
	require.NoError(err)

	assert.Equal(StatusPartial, res.Status)
	assert.Equal([]string{"missing@x.com"}, req.Targets())
	require.Len(res.Failures(), 1)
	assert.Equal(ReasonNotFound, res.Failures()[0].Reason)
	assert.Equal("Added 1 member successfully. Failed to add: missing@x.com (User not found - they may need to register first)", res.Message)

	// a retry only touches what failed
	f.users["missing@x.com"] = 2
	f.resolved = nil
	res, err = newMutator(t, f).Submit(context.Background(), 9, req, "")
	require.NoError(err)
	assert.Equal(StatusComplete, res.Status)
	assert.Equal([]string{"missing@x.com"}, f.resolved)
	assert.Zero(req.Len())
}

func TestSubmit_allFailed(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	f := newFakeLedger()
	f.users["member@x.com"] = 1
	f.users["member2@x.com"] = 2
	f.users["boom@x.com"] = 3
	f.attach[1] = &api.Error{Kind: api.KindBadRequest, Status: 400, Message: "Invalid request: User is already a member of this group"}
	f.attach[2] = &api.Error{Kind: api.KindBadRequest, Status: 400}
	f.attach[3] = &api.Error{Kind: api.KindUnknown, Status: 500, Message: "Internal server error: db down"}
	f.resolve["down@x.com"] = &api.Error{Kind: api.KindTransport, Err: errors.New("connection refused")}

	targets := []string{"nobody@x.com", "member@x.com", "member2@x.com", "boom@x.com", "down@x.com"}
	req := NewRequest(targets...)
	res, err := newMutator(t, f).Submit(context.Background(), 9, req, "")
	require.NoError(err)

	assert.Equal(StatusFailed, res.Status)
	assert.Equal(targets, req.Targets())
	for _, email := range targets {
		assert.Equal(1, strings.Count(res.Message, email+":"), email)
	}

	assert.Equal(`Failed to add any members:
nobody@x.com: User not found - they may need to register first
member@x.com: Invalid request: User is already a member of this group
member2@x.com: User may already be in the group
boom@x.com: Internal server error: db down
down@x.com: transport: connection refused`, res.Message)

	reasons := make([]Reason, len(res.Outcomes))
	for i, o := range res.Outcomes {
		reasons[i] = o.Reason
	}
	assert.Equal([]Reason{ReasonNotFound, ReasonBadRequest, ReasonBadRequest, ReasonUnknown, ReasonUnknown}, reasons)
}

func TestSubmit_attachNotFoundIsUnknown(t *testing.T) {
	f := newFakeLedger()
	f.users["a@x.com"] = 1
	f.attach[1] = &api.Error{Kind: api.KindNotFound, Status: 404, Message: "Resource not found: Group not found"}

	res, err := newMutator(t, f).Submit(context.Background(), 9, NewRequest("a@x.com"), "")
	require.NoError(t, err)

	o := res.Outcomes[0]
	assert.Equal(t, ReasonUnknown, o.Reason)
	assert.Equal(t, "Resource not found: Group not found", o.Detail)
}

func TestSubmit_runsConcurrentlyAndJoinsAll(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	const n = 5
	var started sync.WaitGroup
	started.Add(n)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	f := newFakeLedger()
	f.gate = allStarted
	emails := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}
	for i, e := range emails {
		f.users[e] = int64(i + 1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dir := &countingDirectory{fakeLedger: f, started: &started}
	m := New(Params{Directory: dir, Groups: f, Log: zaptest.NewLogger(t)})

	res, err := m.Submit(ctx, 9, NewRequest(emails...), "")
	require.NoError(err)

	// the gate only opens once all pipelines are waiting on it
	assert.Equal(StatusComplete, res.Status)
	assert.Len(f.attached, n)
	for _, o := range res.Outcomes {
		assert.Equal(Succeeded, o.State)
	}
}

type countingDirectory struct {
	*fakeLedger
	started *sync.WaitGroup
}

func (c *countingDirectory) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	c.started.Done()
	return c.fakeLedger.GetUserByEmail(ctx, email)
}

func TestSubmit_failureDoesNotCancelSiblings(t *testing.T) {
	f := newFakeLedger()
	f.users["slow@x.com"] = 1
	f.resolve["fast@x.com"] = &api.Error{Kind: api.KindUnknown, Status: 500}

	res, err := newMutator(t, f).Submit(context.Background(), 9, NewRequest("fast@x.com", "slow@x.com"), "")
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, res.Status)
	assert.Equal(t, []int64{1}, f.attached)
}

func TestSubmit_leftover(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	f := newFakeLedger()
	f.users["a@x.com"] = 1
	f.users["b@x.com"] = 2

	req := NewRequest("a@x.com")
	res, err := newMutator(t, f).Submit(context.Background(), 9, req, " b@x.com, ")
	require.NoError(err)
	assert.Equal([]string{"a@x.com", "b@x.com"}, res.SucceededEmails())

	req = NewRequest("a@x.com")
	_, err = newMutator(t, f).Submit(context.Background(), 9, req, "b@x")
	assert.ErrorIs(err, ErrInvalidEmail)
	assert.Equal([]string{"a@x.com"}, req.Targets())
}

func TestSubmit_duplicateLeftoverStillSubmits(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	f := newFakeLedger()
	f.users["a@x.com"] = 1
	f.users["b@x.com"] = 2

	req := NewRequest("a@x.com", "b@x.com")
	res, err := newMutator(t, f).Submit(context.Background(), 9, req, "A@x.com")
	require.NoError(err)

	assert.Equal(StatusComplete, res.Status)
	assert.Equal([]string{"a@x.com", "b@x.com"}, res.SucceededEmails())
	assert.ElementsMatch([]string{"a@x.com", "b@x.com"}, f.resolved)
	assert.ErrorIs(res.Skipped, ErrDuplicate)
	assert.Zero(req.Len())
}

func TestSubmit_noTargets(t *testing.T) {
	f := newFakeLedger()

	_, err := newMutator(t, f).Submit(context.Background(), 9, NewRequest(), "  ")
	assert.ErrorIs(t, err, ErrNoTargets)
	assert.Empty(t, f.resolved)
}

func TestSubmit_closedRequestIsNotMutated(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	f := newFakeLedger()
	f.users["ok@x.com"] = 1
	gate := make(chan struct{})
	f.gate = gate

	var started sync.WaitGroup
	started.Add(2)
	dir := &countingDirectory{fakeLedger: f, started: &started}
	m := New(Params{Directory: dir, Groups: f, Log: zaptest.NewLogger(t)})

	req := NewRequest("ok@x.com", "missing@x.com")

	type submitted struct {
		res *Result
		err error
	}
	out := make(chan submitted, 1)
	go func() {
		res, err := m.Submit(context.Background(), 9, req, "")
		out <- submitted{res, err}
	}()

	started.Wait()
	req.Close()
	close(gate)

	var s submitted
	select {
	case s = <-out:
	case <-time.After(2 * time.Second):
		t.Fatal("batch did not finish")
	}
	require.NoError(s.err)
	assert.Equal(StatusPartial, s.res.Status)
	assert.Equal([]string{"ok@x.com", "missing@x.com"}, req.Targets())
}
