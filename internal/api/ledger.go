package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/ghaggin/smartsplit/internal/model"
)

type expenseRequest struct {
	Expense struct {
		Title  string      `json:"title"`
		Amount json.Number `json:"amount"`
	} `json:"expense"`
	ParticipantIDs []int64 `json:"participantIds"`
}

func (c *Client) AddExpense(ctx context.Context, groupID int64, payerID int64, e model.NewExpense) (*model.Expense, error) {
	q := url.Values{
		"groupId": {itoa(groupID)},
		"payerId": {itoa(payerID)},
	}

	var in expenseRequest
	in.Expense.Title = e.Title
	in.Expense.Amount = e.Amount
	in.ParticipantIDs = e.ParticipantIDs

	var out model.Expense
	if err := c.do(ctx, http.MethodPost, c.endpoint(q, "expenses", "add"), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetGroupExpenses(ctx context.Context, groupID int64) ([]model.Expense, error) {
	var out []model.Expense
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "expenses", "group", itoa(groupID)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetUserExpenses(ctx context.Context, userID int64) ([]model.Expense, error) {
	var out []model.Expense
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "expenses", "user", itoa(userID)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteExpense(ctx context.Context, expenseID int64) error {
	return c.do(ctx, http.MethodDelete, c.endpoint(nil, "expenses", itoa(expenseID)), nil, nil)
}

// GetGroupSettlements returns the server's netted obligations for a group.
func (c *Client) GetGroupSettlements(ctx context.Context, groupID int64) ([]model.Settlement, error) {
	var out []model.Settlement
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "settlement", "group", itoa(groupID)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetUserSettlements(ctx context.Context, userID int64) ([]model.Settlement, error) {
	var out []model.Settlement
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "settlement", "user", itoa(userID)), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MarkSettlementPaid(ctx context.Context, settlementID int64) error {
	return c.do(ctx, http.MethodPost, c.endpoint(nil, "settlement", "payment", itoa(settlementID)), nil, nil)
}
