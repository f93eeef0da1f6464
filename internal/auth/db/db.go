package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gala-ticketing/internal/apperr"
	"gala-ticketing/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) Count(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().Model((*models.AdminUser)(nil)).Count(ctx)
}

func (d *DB) CountRole(ctx context.Context, role models.Role) (int, error) {
	return d.Bun.NewSelect().Model((*models.AdminUser)(nil)).Where("role = ?", role).Count(ctx)
}

func (d *DB) List(ctx context.Context) ([]models.AdminUser, error) {
	var users []models.AdminUser
	err := d.Bun.NewSelect().Model(&users).Order("email").Scan(ctx)
	return users, err
}

func (d *DB) get(ctx context.Context, column, value string) (*models.AdminUser, error) {
	user := new(models.AdminUser)
	err := d.Bun.NewSelect().Model(user).Where("? = ?", bun.Ident(column), value).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get admin user by %s: %w", column, err)
	}
	return user, nil
}

func (d *DB) GetByID(ctx context.Context, id string) (*models.AdminUser, error) {
	return d.get(ctx, "id", id)
}

func (d *DB) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	return d.get(ctx, "email", email)
}

func (d *DB) GetByResetToken(ctx context.Context, token string) (*models.AdminUser, error) {
	return d.get(ctx, "reset_token", token)
}

// Insert fails with a Conflict when the email is taken.
func (d *DB) Insert(ctx context.Context, user *models.AdminUser) error {
	res, err := d.Bun.NewInsert().Model(user).On("CONFLICT (email) DO NOTHING").Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Conflictf("A user with that email already exists")
	}
	return nil
}

func (d *DB) SetRole(ctx context.Context, id string, role models.Role) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.AdminUser)(nil)).
		Set("role = ?", role).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) Delete(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().Model((*models.AdminUser)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func (d *DB) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.AdminUser)(nil)).
		Set("last_login = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (d *DB) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.AdminUser)(nil)).
		Set("reset_token = ?", token).
		Set("reset_token_expires = ?", expires).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// SetPassword stores the hash and clears any reset token.
func (d *DB) SetPassword(ctx context.Context, id, hash string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.AdminUser)(nil)).
		Set("password_hash = ?", hash).
		Set("reset_token = NULL").
		Set("reset_token_expires = NULL").
		Where("id = ?", id).
		Exec(ctx)
	return err
}
