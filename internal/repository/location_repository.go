package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/joshuacenter/applicant-intake/internal/apperr"
	"github.com/joshuacenter/applicant-intake/internal/model"
)

// LocationRepo encapsulates the queries on the `Location` table.
type LocationRepo struct {
	db *sql.DB
}

// NewLocationRepo constructs a LocationRepo with the provided DB handle.
func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{db: db} }

// List returns every location ordered by name.  The intake form renders
// this list as checkboxes.
func (r *LocationRepo) List(ctx context.Context) ([]model.Location, error) {
	const q = "SELECT id, name FROM `Location` ORDER BY name"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := []model.Location{}
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, storageErr(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// Create inserts a location and returns it with its generated id.
func (r *LocationRepo) Create(ctx context.Context, name string) (*model.Location, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx, "INSERT INTO `Location` (name) VALUES (?)", name)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrLocationExists
		}
		return nil, storageErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr(err)
	}
	return &model.Location{ID: uint64(id), Name: name}, nil
}

// Rename changes the name of a location.  ErrLocationNotFound is returned
// when the id matches nothing.
func (r *LocationRepo) Rename(ctx context.Context, id uint64, name string) (*model.Location, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx, "UPDATE `Location` SET name = ? WHERE id = ?", name, id)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrLocationExists
		}
		return nil, storageErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrLocationNotFound
	}
	return &model.Location{ID: id, Name: name}, nil
}

// Delete removes a location that no applicant has applied to.  A location
// still referenced by AppliedLoc rows is reported as a conflict carrying
// the number of applicants so the admin knows why nothing happened.
func (r *LocationRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else if cerr := tx.Commit(); cerr != nil {
			err = storageErr(cerr)
		}
	}()

	var exists uint64
	if err = tx.QueryRowContext(ctx, "SELECT id FROM `Location` WHERE id = ? FOR UPDATE", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLocationNotFound
		}
		return storageErr(err)
	}

	var inUse int
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM `AppliedLoc` WHERE location_id = ?", id).Scan(&inUse); err != nil {
		return storageErr(err)
	}
	if inUse > 0 {
		return inUseErr(inUse)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM `Location` WHERE id = ?", id); err != nil {
		// an application committed between the count and the delete
		if isReferenced(err) {
			return ErrLocationInUse
		}
		return storageErr(err)
	}
	return nil
}

func inUseErr(n int) error {
	return apperr.Wrap(apperr.KindConflict, fmt.Sprintf("location is used by %d applicant(s)", n), ErrLocationInUse)
}
