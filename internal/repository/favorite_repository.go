package repository

import (
	"context"
	"database/sql"
)

// FavoriteRepo stores the rooms a customer starred.
type FavoriteRepo struct{ DB *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{DB: db} }

// Add stars a room; starring twice keeps a single row.
func (r *FavoriteRepo) Add(ctx context.Context, customerID, roomID int64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO favorites (customer_id, room_id) VALUES (?,?)", customerID, roomID)
	return err
}

// Remove un-stars a room.  Removing a missing row is ErrNotFound.
func (r *FavoriteRepo) Remove(ctx context.Context, customerID, roomID int64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM favorites WHERE customer_id=? AND room_id=?", customerID, roomID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns starred room ids, most recent first.
func (r *FavoriteRepo) List(ctx context.Context, customerID int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT room_id FROM favorites WHERE customer_id=? ORDER BY created_at DESC, room_id ASC", customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
