package bridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ghaggin/smartsplit/internal/model"
)

type groupBody struct {
	Name string `json:"groupName"`
}

type expenseBody struct {
	Title          string      `json:"title"`
	Amount         json.Number `json:"amount"`
	ParticipantIDs []int64     `json:"participantIds"`
}

// me returns the logged in identity, answering 401 itself when there is none.
func (h *handlers) me(w http.ResponseWriter) (*model.User, bool) {
	user := h.sessions.Snapshot().Identity
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "not logged in")
		return nil, false
	}
	return user, true
}

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.ledger.ListUsers(r.Context())
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "userID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "bad user id")
		return
	}

	user, err := h.ledger.GetUserByID(r.Context(), id)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handlers) getMyGroups(w http.ResponseWriter, r *http.Request) {
	user, ok := h.me(w)
	if !ok {
		return
	}

	groups, err := h.ledger.GetUserGroups(r.Context(), user.ID)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *handlers) getMyExpenses(w http.ResponseWriter, r *http.Request) {
	user, ok := h.me(w)
	if !ok {
		return
	}

	expenses, err := h.ledger.GetUserExpenses(r.Context(), user.ID)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *handlers) getMySettlements(w http.ResponseWriter, r *http.Request) {
	user, ok := h.me(w)
	if !ok {
		return
	}

	settlements, err := h.ledger.GetUserSettlements(r.Context(), user.ID)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settlements)
}

func (h *handlers) createGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := h.me(w)
	if !ok {
		return
	}

	var body groupBody
	if err := decode(r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "group name is required")
		return
	}

	g, err := h.ledger.CreateGroup(r.Context(), name, user.ID)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *handlers) getGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "groupID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "bad group id")
		return
	}

	g, err := h.ledger.GetGroupByID(r.Context(), id)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *handlers) getGroupExpenses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "groupID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "bad group id")
		return
	}

	expenses, err := h.ledger.GetGroupExpenses(r.Context(), id)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// addExpense logs an expense paid by the current user. Without participants
// it is split across every member of the group.
func (h *handlers) addExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := h.me(w)
	if !ok {
		return
	}
	id, ok := pathID(r, "groupID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "bad group id")
		return
	}

	var body expenseBody
	if err := decode(r, &body); err != nil {
		writeMessage(w, http.StatusBadRequest, "bad json")
		return
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		writeMessage(w, http.StatusBadRequest, "title is required")
		return
	}
	if amount, err := body.Amount.Float64(); err != nil || amount <= 0 {
		writeMessage(w, http.StatusBadRequest, "amount must be a positive number")
		return
	}

	g, err := h.ledger.GetGroupByID(r.Context(), id)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}

	participants := body.ParticipantIDs
	if len(participants) == 0 {
		for _, m := range g.Members {
			if m.User != nil {
				participants = append(participants, m.User.ID)
			}
		}
	}
	for _, p := range participants {
		if !g.HasMember(p) {
			writeMessage(w, http.StatusBadRequest, fmt.Sprintf("user %d is not a member of this group", p))
			return
		}
	}

	e, err := h.ledger.AddExpense(r.Context(), id, user.ID, model.NewExpense{
		Title:          title,
		Amount:         body.Amount,
		ParticipantIDs: participants,
	})
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *handlers) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "expenseID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "bad expense id")
		return
	}

	if err := h.ledger.DeleteExpense(r.Context(), id); err != nil {
		h.writeRemoteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getGroupSettlements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "groupID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "bad group id")
		return
	}

	settlements, err := h.ledger.GetGroupSettlements(r.Context(), id)
	if err != nil {
		h.writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settlements)
}

func (h *handlers) markSettlementPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "settlementID")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "bad settlement id")
		return
	}

	if err := h.ledger.MarkSettlementPaid(r.Context(), id); err != nil {
		h.writeRemoteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
