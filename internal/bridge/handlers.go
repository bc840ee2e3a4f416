package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ghaggin/smartsplit/internal/api"
	"github.com/ghaggin/smartsplit/internal/membership"
	"github.com/ghaggin/smartsplit/internal/middleware"
	"github.com/ghaggin/smartsplit/internal/model"
	"github.com/ghaggin/smartsplit/internal/session"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type handlers struct {
	log      *zap.Logger
	sessions Sessions
	batch    Batch
	ledger   Ledger
	view     *middleware.ViewState
}

type sessionView struct {
	LoggedIn    bool        `json:"loggedIn"`
	Provisional bool        `json:"provisional"`
	State       string      `json:"state"`
	User        *model.User `json:"user,omitempty"`
}

type inputBody struct {
	Input string `json:"input"`
}

type pendingView struct {
	Targets []string `json:"targets"`
	Errors  []string `json:"errors,omitempty"`
}

type outcomeView struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

type resultView struct {
	Status    string        `json:"status"`
	Message   string        `json:"message"`
	Succeeded []string      `json:"succeeded"`
	Failed    []outcomeView `json:"failed"`
	Targets   []string      `json:"targets"`
	Notice    string        `json:"notice,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeRemoteError maps a ledger failure onto a bridge status.
func (h *handlers) writeRemoteError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch api.KindOf(err) {
	case api.KindUnauthorized:
		status = http.StatusUnauthorized
	case api.KindNotFound:
		status = http.StatusNotFound
	case api.KindBadRequest:
		status = http.StatusBadRequest
	}

	h.log.Warn("ledger request failed", zap.Error(err))
	writeMessage(w, status, api.MessageOf(err))
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// pathID parses the positive integer path parameter key.
func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	return id, err == nil && id > 0
}

func (h *handlers) currentView() sessionView {
	s := h.sessions.Snapshot()
	return sessionView{
		LoggedIn:    s.LoggedIn(),
		Provisional: s.Provisional(),
		State:       s.State.String(),
		User:        s.Identity,
	}
}

func (h *handlers) getSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decode(r, &creds); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}

	if _, err := h.sessions.Login(r.Context(), creds); err != nil {
		h.writeAuthError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var profile model.Profile
	if err := decode(r, &profile); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}

	if _, err := h.sessions.Register(r.Context(), profile); err != nil {
		h.writeAuthError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, h.currentView())
}

func (h *handlers) writeAuthError(w http.ResponseWriter, status int, err error) {
	var authErr *session.AuthError
	if errors.As(err, &authErr) {
		writeMessage(w, status, authErr.Message)
		return
	}

	if errors.Is(err, session.ErrSuperseded) {
		writeMessage(w, http.StatusConflict, err.Error())
		return
	}

	h.log.Error("failed establishing session", zap.Error(err))
	writeMessage(w, http.StatusInternalServerError, "could not save session")
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.Logout(r.Context())

	if viewErr := h.view.Clear(r.Context()); viewErr != nil {
		h.log.Warn("failed clearing view state", zap.Error(viewErr))
	}

	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "logged out, but the saved credential could not be removed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getPending(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "groupID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "bad group id")
		return
	}

	writeJSON(w, http.StatusOK, pendingView{Targets: h.view.Pending(r.Context(), id).Targets()})
}

func (h *handlers) queuePending(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "groupID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "bad group id")
		return
	}

	var body inputBody
	if err := decode(r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}

	req := h.view.Pending(r.Context(), id)
	errs := req.Feed(body.Input)
	h.view.SetPending(r.Context(), id, req)

	view := pendingView{Targets: req.Targets()}
	for _, err := range errs {
		view.Errors = append(view.Errors, err.Error())
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) removePending(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "groupID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "bad group id")
		return
	}

	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "bad email")
		return
	}

	req := h.view.Pending(r.Context(), id)
	if !req.Remove(email) {
		writeMessage(w, http.StatusNotFound, "email is not queued")
		return
	}
	h.view.SetPending(r.Context(), id, req)

	writeJSON(w, http.StatusOK, pendingView{Targets: req.Targets()})
}

func (h *handlers) submitMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "groupID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "bad group id")
		return
	}

	var body inputBody
	if err := decode(r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}

	req := h.view.Pending(r.Context(), id)

	// a caller that goes away abandons the batch without cancelling it
	res, err := h.batch.Submit(context.WithoutCancel(r.Context()), id, req, body.Input)

	var verr *membership.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, pendingView{
			Targets: req.Targets(),
			Errors:  []string{verr.Error()},
		})
		return
	}
	if err != nil {
		h.log.Error("member batch failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.view.SetPending(r.Context(), id, req)

	view := resultView{
		Status:    res.Status.String(),
		Message:   res.Message,
		Succeeded: res.SucceededEmails(),
		Failed:    []outcomeView{},
		Targets:   req.Targets(),
	}
	if res.Skipped != nil {
		view.Notice = res.Skipped.Error()
	}
	for _, f := range res.Failures() {
		view.Failed = append(view.Failed, outcomeView{
			Email:  f.Email,
			Reason: f.Reason.String(),
			Detail: f.Detail,
		})
	}
	writeJSON(w, http.StatusOK, view)
}
