package membership

import (
	"context"
	"errors"
	"strings"

	"github.com/ghaggin/smartsplit/internal/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Directory interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type Groups interface {
	AddUserToGroup(ctx context.Context, groupID int64, userID int64) error
}

// Mutator adds members to a group by email, one resolve-then-attach
// pipeline per email, all running at once.
type Mutator struct {
	dir    Directory
	groups Groups
	log    *zap.Logger
}

type Params struct {
	fx.In

	Directory Directory
	Groups    Groups
	Log       *zap.Logger
}

func New(p Params) *Mutator {
	return &Mutator{
		dir:    p.Directory,
		groups: p.Groups,
		log:    p.Log,
	}
}

// Submit queues leftover as a final token, runs every queued email and
// waits for all of them. On full success req is emptied, on partial success
// it keeps only the failed emails, and on total failure it is unchanged.
// A malformed leftover aborts the submit; one that is already queued is
// reported on the Result and the queue is submitted as it is.
// Only one Submit per Request may be in flight.
func (m *Mutator) Submit(ctx context.Context, groupID int64, req *Request, leftover string) (*Result, error) {
	var skipped error
	if strings.TrimSpace(leftover) != "" {
		if err := req.Add(leftover); err != nil {
			if !errors.Is(err, ErrDuplicate) {
				return nil, err
			}
			skipped = err
		}
	}

	targets, tag := req.begin()
	if len(targets) == 0 {
		return nil, &ValidationError{Err: ErrNoTargets}
	}

	res := newResult(m.dispatch(ctx, groupID, targets))
	res.Skipped = skipped

	if !req.apply(tag, res) {
		m.log.Debug("request closed while batch was in flight", zap.Int64("group_id", groupID))
	}

	m.log.Info("member batch finished",
		zap.Int64("group_id", groupID),
		zap.Stringer("status", res.Status),
		zap.Int("targets", len(targets)),
		zap.Int("failed", len(res.Failures())),
	)

	return res, nil
}

// dispatch runs all pipelines concurrently and returns once every one has
// reached a terminal outcome. A failing pipeline never cancels its siblings.
func (m *Mutator) dispatch(ctx context.Context, groupID int64, targets []string) []Outcome {
	outcomes := make([]Outcome, len(targets))

	var g errgroup.Group
	for i, email := range targets {
		g.Go(func() error {
			outcomes[i] = m.pipeline(ctx, groupID, email)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (m *Mutator) pipeline(ctx context.Context, groupID int64, email string) Outcome {
	user, err := m.dir.GetUserByEmail(ctx, email)
	if err != nil {
		o := failed(email, stepResolve, err)
		m.log.Warn("failed resolving member email",
			zap.String("email", email),
			zap.Stringer("reason", o.Reason),
			zap.Error(err),
		)
		return o
	}

	if err := m.groups.AddUserToGroup(ctx, groupID, user.ID); err != nil {
		o := failed(email, stepAttach, err)
		m.log.Warn("failed adding member to group",
			zap.String("email", email),
			zap.Int64("user_id", user.ID),
			zap.Int64("group_id", groupID),
			zap.Stringer("reason", o.Reason),
			zap.Error(err),
		)
		return o
	}

	return succeeded(email)
}
