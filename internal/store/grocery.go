package store

import (
	"database/sql"
	"fmt"

	"github.com/darby/hearth/internal/model"
)

type GroceryStore struct {
	db *sql.DB
}

func NewGroceryStore(db *sql.DB) *GroceryStore {
	return &GroceryStore{db: db}
}

func scanGroceryList(scanner interface{ Scan(...any) error }) (*model.GroceryList, error) {
	var l model.GroceryList
	err := scanner.Scan(&l.ID, &l.TeamID, &l.Name, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanGroceryItem(scanner interface{ Scan(...any) error }) (*model.GroceryItem, error) {
	var item model.GroceryItem
	var completed int
	err := scanner.Scan(
		&item.ID, &item.ListID, &item.Name, &item.Quantity, &item.Unit,
		&item.Notes, &completed, &item.AddedBy, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Completed = completed != 0
	return &item, nil
}

const groceryListCols = `id, team_id, name, created_at, updated_at`
const groceryItemCols = `id, list_id, name, quantity, unit, notes, completed, added_by, created_at, updated_at`

// --- List methods ---

func (s *GroceryStore) CreateList(teamID int64, name string) (*model.GroceryList, error) {
	result, err := s.db.Exec(`INSERT INTO grocery_lists (team_id, name) VALUES (?, ?)`, teamID, name)
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetListByID(id)
}

func (s *GroceryStore) GetListByID(id int64) (*model.GroceryList, error) {
	row := s.db.QueryRow(`SELECT `+groceryListCols+` FROM grocery_lists WHERE id = ?`, id)
	l, err := scanGroceryList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

func (s *GroceryStore) ListsByTeam(teamID int64) ([]model.GroceryList, error) {
	rows, err := s.db.Query(
		`SELECT `+groceryListCols+` FROM grocery_lists WHERE team_id = ? ORDER BY created_at ASC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list grocery lists: %w", err)
	}
	defer rows.Close()

	var lists []model.GroceryList
	for rows.Next() {
		l, err := scanGroceryList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

func (s *GroceryStore) RenameList(id int64, name string) (*model.GroceryList, error) {
	_, err := s.db.Exec(`UPDATE grocery_lists SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("rename list: %w", err)
	}
	return s.GetListByID(id)
}

func (s *GroceryStore) DeleteList(id int64) error {
	_, err := s.db.Exec(`DELETE FROM grocery_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

// --- Item methods ---

func (s *GroceryStore) CreateItem(listID int64, name string, quantity float64, unit, notes string, addedBy int64) (*model.GroceryItem, error) {
	result, err := s.db.Exec(
		`INSERT INTO grocery_items (list_id, name, quantity, unit, notes, added_by) VALUES (?, ?, ?, ?, ?, ?)`,
		listID, name, quantity, unit, notes, addedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetItemByID(id)
}

func (s *GroceryStore) GetItemByID(id int64) (*model.GroceryItem, error) {
	row := s.db.QueryRow(`SELECT `+groceryItemCols+` FROM grocery_items WHERE id = ?`, id)
	item, err := scanGroceryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *GroceryStore) ItemsByList(listID int64) ([]model.GroceryItem, error) {
	rows, err := s.db.Query(
		`SELECT `+groceryItemCols+` FROM grocery_items WHERE list_id = ? ORDER BY completed ASC, created_at ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.GroceryItem
	for rows.Next() {
		item, err := scanGroceryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *GroceryStore) UpdateItem(id int64, name string, quantity float64, unit, notes string) (*model.GroceryItem, error) {
	_, err := s.db.Exec(
		`UPDATE grocery_items SET name = ?, quantity = ?, unit = ?, notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, quantity, unit, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.GetItemByID(id)
}

func (s *GroceryStore) DeleteItem(id int64) error {
	_, err := s.db.Exec(`DELETE FROM grocery_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// ToggleCompleted flips an item's completed flag and returns the new state.
func (s *GroceryStore) ToggleCompleted(id int64) (*model.GroceryItem, error) {
	item, err := s.GetItemByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	_, err = s.db.Exec(
		`UPDATE grocery_items SET completed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolToInt(!item.Completed), id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle completed: %w", err)
	}
	return s.GetItemByID(id)
}

// ClearCompleted deletes every completed item on a list.
func (s *GroceryStore) ClearCompleted(listID int64) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM grocery_items WHERE list_id = ? AND completed = 1`, listID)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
