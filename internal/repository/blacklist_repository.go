package repository

import (
	"context"
	"errors"

	"nexa/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type BlacklistRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBlacklistRepository(db *pgxpool.Pool, logger *zap.Logger) *BlacklistRepository {
	return &BlacklistRepository{
		db:     db,
		logger: logger,
	}
}

var blacklistColumns = []string{
	"id", "organization_id", "name", "description", "phone_numbers",
	"created_at", "updated_at",
}

func (r *BlacklistRepository) Create(ctx context.Context, bl *models.Blacklist) error {
	query := squirrel.Insert("blacklists").
		Columns(blacklistColumns...).
		Values(bl.ID, bl.OrganizationID, bl.Name, bl.Description, bl.PhoneNumbers,
			bl.CreatedAt, bl.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *BlacklistRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.Blacklist, error) {
	query := squirrel.Select(blacklistColumns...).
		From("blacklists").
		Where(squirrel.Eq{"id": id, "organization_id": organizationID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	bl, err := scanBlacklist(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return bl, err
}

func (r *BlacklistRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*models.Blacklist, error) {
	query := squirrel.Select(blacklistColumns...).
		From("blacklists").
		Where(squirrel.Eq{"organization_id": organizationID}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blacklists []*models.Blacklist
	for rows.Next() {
		bl, err := scanBlacklist(rows)
		if err != nil {
			return nil, err
		}
		blacklists = append(blacklists, bl)
	}

	return blacklists, rows.Err()
}

// AddNumber appends a phone number to the blacklist unless it is already
// present, and returns the resulting set. The guarded single-row update
// keeps repeated adds idempotent.
func (r *BlacklistRepository) AddNumber(ctx context.Context, organizationID, id uuid.UUID, phoneNumber string) ([]string, error) {
	sql := `UPDATE blacklists
		SET phone_numbers = array_append(phone_numbers, $1), updated_at = NOW()
		WHERE id = $2 AND organization_id = $3 AND NOT (phone_numbers @> ARRAY[$1])`

	if _, err := r.db.Exec(ctx, sql, phoneNumber, id, organizationID); err != nil {
		return nil, err
	}

	return r.numbers(ctx, organizationID, id)
}

// RemoveNumber deletes a phone number from the blacklist; removing an absent
// number is a no-op. Returns the resulting set.
func (r *BlacklistRepository) RemoveNumber(ctx context.Context, organizationID, id uuid.UUID, phoneNumber string) ([]string, error) {
	sql := `UPDATE blacklists
		SET phone_numbers = array_remove(phone_numbers, $1), updated_at = NOW()
		WHERE id = $2 AND organization_id = $3`

	if _, err := r.db.Exec(ctx, sql, phoneNumber, id, organizationID); err != nil {
		return nil, err
	}

	return r.numbers(ctx, organizationID, id)
}

// ContainsNumber reports whether the phone number appears in any blacklist
// of the organization.
func (r *BlacklistRepository) ContainsNumber(ctx context.Context, organizationID uuid.UUID, phoneNumber string) (bool, error) {
	sql := `SELECT EXISTS (
		SELECT 1 FROM blacklists
		WHERE organization_id = $1 AND phone_numbers @> ARRAY[$2]
	)`

	var exists bool
	err := r.db.QueryRow(ctx, sql, organizationID, phoneNumber).Scan(&exists)
	return exists, err
}

func (r *BlacklistRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	query := squirrel.Delete("blacklists").
		Where(squirrel.Eq{"id": id, "organization_id": organizationID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BlacklistRepository) numbers(ctx context.Context, organizationID, id uuid.UUID) ([]string, error) {
	query := squirrel.Select("phone_numbers").
		From("blacklists").
		Where(squirrel.Eq{"id": id, "organization_id": organizationID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var numbers []string
	err = r.db.QueryRow(ctx, sql, args...).Scan(&numbers)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return numbers, err
}

func scanBlacklist(row pgx.Row) (*models.Blacklist, error) {
	var bl models.Blacklist
	err := row.Scan(
		&bl.ID, &bl.OrganizationID, &bl.Name, &bl.Description, &bl.PhoneNumbers,
		&bl.CreatedAt, &bl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bl, nil
}
