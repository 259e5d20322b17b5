package model

import "time"

type Expense struct {
	ID              int64          `json:"id"`
	TeamID          int64          `json:"team_id"`
	Description     string         `json:"description"`
	Amount          float64        `json:"amount"`
	Currency        string         `json:"currency"`
	PrimaryAmount   float64        `json:"primary_amount"`
	PrimaryCurrency string         `json:"primary_currency"`
	Category        string         `json:"category"`
	Date            string         `json:"date"`
	PaidByID        int64          `json:"paid_by_id"`
	IsShared        bool           `json:"is_shared"`
	Shares          []ExpenseShare `json:"shares"`
	CreatedBy       int64          `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ExpenseShare is one member's slice of a shared expense. Share is a percent
// (0-100); Amount is in the expense's own currency. Shares are kept in the
// order they were entered.
type ExpenseShare struct {
	MemberID   int64   `json:"member_id"`
	MemberName string  `json:"member_name"`
	Share      float64 `json:"share"`
	Amount     float64 `json:"amount"`
}
