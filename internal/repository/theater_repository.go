// This file defines the theater repository.  A Theater is a venue with a
// fixed seat count and an optional manager user.  Writes that set a
// manager confirm the user exists inside the same transaction as the
// write.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/theater-booking/internal/database"
	"github.com/iliyamo/theater-booking/internal/model"
)

// TheaterRepo encapsulates all database queries related to theaters.
type TheaterRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewTheaterRepo constructs a TheaterRepo with the provided DB handle.
func NewTheaterRepo(db *sql.DB) *TheaterRepo {
	return &TheaterRepo{db: db}
}

const theaterColumns = "id, name, address, seat_count, manager_id"

func scanTheater(row interface{ Scan(...any) error }) (*model.Theater, error) {
	var (
		t       model.Theater
		manager sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Address, &t.SeatCount, &manager); err != nil {
		return nil, err
	}
	if manager.Valid {
		id := manager.Int64
		t.ManagerID = &id
	}
	return &t, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// List returns all theaters ordered by id.
func (r *TheaterRepo) List(ctx context.Context) ([]*model.Theater, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+theaterColumns+" FROM theaters ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list theaters: %w", err)
	}
	defer rows.Close()

	var out []*model.Theater
	for rows.Next() {
		t, err := scanTheater(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theater: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list theaters: %w", err)
	}
	return out, nil
}

// Get fetches a theater by id or returns ErrNotFound.
func (r *TheaterRepo) Get(ctx context.Context, id int64) (*model.Theater, error) {
	t, err := scanTheater(r.db.QueryRowContext(ctx, "SELECT "+theaterColumns+" FROM theaters WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get theater: %w", err)
	}
	return t, nil
}

// Count returns the number of theaters.
func (r *TheaterRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM theaters").Scan(&n); err != nil {
		return 0, fmt.Errorf("count theaters: %w", err)
	}
	return n, nil
}

// Insert validates t and stores it with a newly generated id.  The
// returned theater carries that id; t is not modified.
func (r *TheaterRepo) Insert(ctx context.Context, t model.Theater) (*model.Theater, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		if err := checkManager(ctx, tx, t.ManagerID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO theaters (name, address, seat_count, manager_id) VALUES (?, ?, ?, ?)",
			t.Name, t.Address, t.SeatCount, nullableID(t.ManagerID))
		if err != nil {
			if isMissingReference(err) {
				return model.ErrInvalidManager
			}
			return fmt.Errorf("insert theater: %w", err)
		}
		t.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateFunc receives the stored theater and returns its full replacement.
// Returning an error aborts the update.
type UpdateFunc func(current model.Theater) (model.Theater, error)

// Update locks the theater row, hands the current record to fn and writes
// the replacement it returns.  Every column is overwritten.  A missing
// row yields ErrNotFound; the row lock keeps a concurrent delete from
// interleaving with the read-check-write sequence.
func (r *TheaterRepo) Update(ctx context.Context, id int64, fn UpdateFunc) (*model.Theater, error) {
	var out model.Theater
	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		cur, err := scanTheater(tx.QueryRowContext(ctx,
			"SELECT "+theaterColumns+" FROM theaters WHERE id = ? FOR UPDATE", id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("lock theater: %w", err)
		}
		next, err := fn(*cur)
		if err != nil {
			return err
		}
		next.ID = id
		if err := next.Validate(); err != nil {
			return err
		}
		if err := checkManager(ctx, tx, next.ManagerID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE theaters SET name = ?, address = ?, seat_count = ?, manager_id = ? WHERE id = ?",
			next.Name, next.Address, next.SeatCount, nullableID(next.ManagerID), id); err != nil {
			if isMissingReference(err) {
				return model.ErrInvalidManager
			}
			return fmt.Errorf("update theater: %w", err)
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a theater and reports whether a row was deleted.
func (r *TheaterRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM theaters WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete theater: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// checkManager confirms that a non-nil manager id names an existing user.
func checkManager(ctx context.Context, q database.DBTX, managerID *int64) error {
	if managerID == nil {
		return nil
	}
	ok, err := userExists(ctx, q, *managerID)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrInvalidManager
	}
	return nil
}
