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

type IntegrationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewIntegrationRepository(db *pgxpool.Pool, logger *zap.Logger) *IntegrationRepository {
	return &IntegrationRepository{
		db:     db,
		logger: logger,
	}
}

var integrationColumns = []string{
	"id", "organization_id", "type", "name", "config", "status",
	"last_sync_at", "created_at", "updated_at",
}

func (r *IntegrationRepository) Create(ctx context.Context, integration *models.Integration) error {
	query := squirrel.Insert("integrations").
		Columns(integrationColumns...).
		Values(integration.ID, integration.OrganizationID, integration.Type, integration.Name,
			integration.Config, integration.Status, integration.LastSyncAt,
			integration.CreatedAt, integration.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *IntegrationRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.Integration, error) {
	query := squirrel.Select(integrationColumns...).
		From("integrations").
		Where(squirrel.Eq{"id": id, "organization_id": organizationID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	integration, err := scanIntegration(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return integration, err
}

func (r *IntegrationRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*models.Integration, error) {
	query := squirrel.Select(integrationColumns...).
		From("integrations").
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

	var integrations []*models.Integration
	for rows.Next() {
		integration, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		integrations = append(integrations, integration)
	}

	return integrations, rows.Err()
}

// FindWhatsAppByInstance resolves the integration owning a WhatsApp gateway
// instance. Unlike other lookups it is not organization-scoped: the webhook
// layer uses it to discover the organization.
func (r *IntegrationRepository) FindWhatsAppByInstance(ctx context.Context, instance string) (*models.Integration, error) {
	query := squirrel.Select(integrationColumns...).
		From("integrations").
		Where(squirrel.Eq{"type": "whatsapp"}).
		Where(squirrel.Expr("config->>'instance' = ?", instance)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	integration, err := scanIntegration(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return integration, err
}

// FindByID resolves an integration by id alone. Like the instance lookup it
// is not organization-scoped: external systems address their integration by
// id and the owning organization is read off the row.
func (r *IntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Integration, error) {
	query := squirrel.Select(integrationColumns...).
		From("integrations").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	integration, err := scanIntegration(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return integration, err
}

func (r *IntegrationRepository) Update(ctx context.Context, integration *models.Integration) error {
	query := squirrel.Update("integrations").
		Set("name", integration.Name).
		Set("config", integration.Config).
		Set("status", integration.Status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": integration.ID, "organization_id": integration.OrganizationID}).
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

// TouchLastSync records that the integration just received a webhook.
func (r *IntegrationRepository) TouchLastSync(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Update("integrations").
		Set("last_sync_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *IntegrationRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	query := squirrel.Delete("integrations").
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

func scanIntegration(row pgx.Row) (*models.Integration, error) {
	var integration models.Integration
	err := row.Scan(
		&integration.ID, &integration.OrganizationID, &integration.Type, &integration.Name,
		&integration.Config, &integration.Status, &integration.LastSyncAt,
		&integration.CreatedAt, &integration.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &integration, nil
}
