package model

import "encoding/json"

type Expense struct {
	ID           int64                `json:"id"`
	Title        string               `json:"title"`
	Amount       json.Number          `json:"amount"`
	PaidBy       *User                `json:"paidBy,omitempty"`
	CreatedAt    string               `json:"createdAt,omitempty"`
	Participants []ExpenseParticipant `json:"participants,omitempty"`
}

type ExpenseParticipant struct {
	ID          int64       `json:"id"`
	User        *User       `json:"user,omitempty"`
	ShareAmount json.Number `json:"shareAmount"`
}

// NewExpense is the payload for logging an expense; the server splits
// Amount across ParticipantIDs.
type NewExpense struct {
	Title          string
	Amount         json.Number
	ParticipantIDs []int64
}

// Settlement is one pairwise obligation produced by the server.
type Settlement struct {
	ID       int64       `json:"id"`
	FromUser *User       `json:"fromUser"`
	ToUser   *User       `json:"toUser"`
	Group    *Group      `json:"group,omitempty"`
	Amount   json.Number `json:"amount"`
	Paid     bool        `json:"paid"`
}
