package middleware

import (
	"context"
	"encoding/gob"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/ghaggin/smartsplit/internal/config"
	"github.com/ghaggin/smartsplit/internal/membership"
	"github.com/ghaggin/smartsplit/internal/model"
)

const (
	pendingKey = "pending_members"
	cookieName = "smartsplit_view"
)

// ViewState keeps per-browser state of the bridge. The member emails a view
// has queued, and which survived the last submit, live here rather than in
// the core.
type ViewState struct {
	impl *scs.SessionManager
}

func NewViewState(cfg *config.Config) (*ViewState, error) {
	gob.Register(&model.PendingBatch{})

	s := &ViewState{}
	s.impl = scs.New()
	s.impl.Lifetime = cfg.Bridge.SessionLifetime
	s.impl.Cookie.Name = cookieName
	s.impl.Cookie.HttpOnly = true
	s.impl.Cookie.SameSite = http.SameSiteStrictMode

	return s, nil
}

func (s *ViewState) Wrap(next http.Handler) http.Handler {
	return s.impl.LoadAndSave(next)
}

// Pending returns the queued emails for groupID. Emails queued for another
// group are discarded.
func (s *ViewState) Pending(ctx context.Context, groupID int64) *membership.Request {
	batch, ok := s.impl.Get(ctx, pendingKey).(*model.PendingBatch)
	if !ok || batch.GroupID != groupID {
		return membership.NewRequest()
	}

	return membership.NewRequest(batch.Targets...)
}

func (s *ViewState) SetPending(ctx context.Context, groupID int64, req *membership.Request) {
	targets := req.Targets()
	if len(targets) == 0 {
		s.impl.Remove(ctx, pendingKey)
		return
	}

	s.impl.Put(ctx, pendingKey, &model.PendingBatch{
		GroupID: groupID,
		Targets: targets,
	})
}

// Clear drops everything the view holds, used on logout.
func (s *ViewState) Clear(ctx context.Context) error {
	return s.impl.Destroy(ctx)
}
