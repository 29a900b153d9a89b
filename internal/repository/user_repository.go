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

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, first_name, last_name, active, created_at"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all staff users ordered by last name, then first name.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM `User` ORDER BY last_name, first_name, id")
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM `User` WHERE id = ? LIMIT 1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr(err)
	}
	return u, nil
}

// Create inserts an active user with a normalized email and returns it.
func (r *UserRepo) Create(ctx context.Context, email, firstName, lastName string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO `User` (email, first_name, last_name) VALUES (?, ?, ?)",
		email, strings.TrimSpace(firstName), strings.TrimSpace(lastName))
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrUserExists
		}
		return nil, storageErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr(err)
	}
	return r.GetByID(ctx, uint64(id))
}

// Update applies the non-nil fields of upd and returns the stored user.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd model.UserUpdate) (*model.User, error) {
	if upd.Empty() {
		return r.GetByID(ctx, id)
	}
	var (
		sets []string
		args []any
	)
	if upd.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, *upd.Active)
	}
	if upd.FirstName != nil {
		sets = append(sets, "first_name = ?")
		args = append(args, strings.TrimSpace(*upd.FirstName))
	}
	if upd.LastName != nil {
		sets = append(sets, "last_name = ?")
		args = append(args, strings.TrimSpace(*upd.LastName))
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx,
		"UPDATE `User` SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, storageErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a user that is not assigned to any applicant.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	var assigned int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM `Applicant` WHERE assigned_employee_id = ?", id).Scan(&assigned); err != nil {
		return storageErr(err)
	}
	if assigned > 0 {
		return apperr.Wrap(apperr.KindConflict,
			fmt.Sprintf("user is assigned to %d applicant(s)", assigned), ErrUserAssigned)
	}

	res, err := r.DB.ExecContext(ctx, "DELETE FROM `User` WHERE id = ?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrUserAssigned
		}
		return storageErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
