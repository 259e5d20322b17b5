package store

import (
	"database/sql"
	"fmt"

	"github.com/darby/hearth/internal/model"
)

type ExpenseStore struct {
	db *sql.DB
}

func NewExpenseStore(db *sql.DB) *ExpenseStore {
	return &ExpenseStore{db: db}
}

func scanExpense(scanner interface{ Scan(...any) error }) (*model.Expense, error) {
	var e model.Expense
	var shared int
	err := scanner.Scan(
		&e.ID, &e.TeamID, &e.Description, &e.Amount, &e.Currency,
		&e.PrimaryAmount, &e.PrimaryCurrency, &e.Category, &e.Date,
		&e.PaidByID, &shared, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.IsShared = shared != 0
	return &e, nil
}

const expenseCols = `id, team_id, description, amount, currency, primary_amount, primary_currency, category, date, paid_by_id, is_shared, created_by, created_at, updated_at`

func (s *ExpenseStore) Create(e *model.Expense) (*model.Expense, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO expenses (team_id, description, amount, currency, primary_amount, primary_currency, category, date, paid_by_id, is_shared, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TeamID, e.Description, e.Amount, e.Currency, e.PrimaryAmount, e.PrimaryCurrency,
		e.Category, e.Date, e.PaidByID, boolToInt(e.IsShared), e.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertShares(tx, id, e.Shares); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *ExpenseStore) GetByID(id int64) (*model.Expense, error) {
	row := s.db.QueryRow(`SELECT `+expenseCols+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if err := s.loadShares(e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListByTeam returns all of a team's expenses, newest date first, with their
// shares attached in entry order.
func (s *ExpenseStore) ListByTeam(teamID int64) ([]model.Expense, error) {
	rows, err := s.db.Query(
		`SELECT `+expenseCols+` FROM expenses WHERE team_id = ? ORDER BY date DESC, id DESC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []model.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range expenses {
		if err := s.loadShares(&expenses[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func (s *ExpenseStore) Update(e *model.Expense) (*model.Expense, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE expenses SET description = ?, amount = ?, currency = ?, primary_amount = ?, primary_currency = ?,
		 category = ?, date = ?, paid_by_id = ?, is_shared = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		e.Description, e.Amount, e.Currency, e.PrimaryAmount, e.PrimaryCurrency,
		e.Category, e.Date, e.PaidByID, boolToInt(e.IsShared), e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM expense_shares WHERE expense_id = ?`, e.ID); err != nil {
		return nil, fmt.Errorf("clear shares: %w", err)
	}
	if err := insertShares(tx, e.ID, e.Shares); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(e.ID)
}

func (s *ExpenseStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (s *ExpenseStore) loadShares(e *model.Expense) error {
	rows, err := s.db.Query(
		`SELECT member_id, member_name, share, amount FROM expense_shares WHERE expense_id = ? ORDER BY position ASC`,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("load shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sh model.ExpenseShare
		if err := rows.Scan(&sh.MemberID, &sh.MemberName, &sh.Share, &sh.Amount); err != nil {
			return fmt.Errorf("scan share: %w", err)
		}
		e.Shares = append(e.Shares, sh)
	}
	return rows.Err()
}

func insertShares(tx *sql.Tx, expenseID int64, shares []model.ExpenseShare) error {
	for i, sh := range shares {
		_, err := tx.Exec(
			`INSERT INTO expense_shares (expense_id, member_id, member_name, share, amount, position) VALUES (?, ?, ?, ?, ?, ?)`,
			expenseID, sh.MemberID, sh.MemberName, sh.Share, sh.Amount, i,
		)
		if err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
