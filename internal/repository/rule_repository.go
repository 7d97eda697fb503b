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

type RuleRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRuleRepository(db *pgxpool.Pool, logger *zap.Logger) *RuleRepository {
	return &RuleRepository{
		db:     db,
		logger: logger,
	}
}

var ruleColumns = []string{
	"id", "organization_id", "name", "description",
	"condition_type", "condition_config", "action_type", "action_config",
	"priority", "is_active", "created_at", "updated_at",
}

func (r *RuleRepository) Create(ctx context.Context, rule *models.BusinessRule) error {
	query := squirrel.Insert("business_rules").
		Columns(ruleColumns...).
		Values(rule.ID, rule.OrganizationID, rule.Name, rule.Description,
			rule.ConditionType, rule.ConditionConfig, rule.ActionType, rule.ActionConfig,
			rule.Priority, rule.IsActive, rule.CreatedAt, rule.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *RuleRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*models.BusinessRule, error) {
	query := squirrel.Select(ruleColumns...).
		From("business_rules").
		Where(squirrel.Eq{"id": id, "organization_id": organizationID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rule, err := scanRule(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rule, err
}

// ListByOrganization returns every rule of the organization, highest
// priority first.
func (r *RuleRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*models.BusinessRule, error) {
	return r.list(ctx, squirrel.Eq{"organization_id": organizationID})
}

// ListActiveByOrganization returns the active rules in evaluation order:
// descending priority, creation order breaking ties.
func (r *RuleRepository) ListActiveByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*models.BusinessRule, error) {
	return r.list(ctx, squirrel.Eq{"organization_id": organizationID, "is_active": true})
}

func (r *RuleRepository) list(ctx context.Context, where squirrel.Eq) ([]*models.BusinessRule, error) {
	query := squirrel.Select(ruleColumns...).
		From("business_rules").
		Where(where).
		OrderBy("priority DESC", "created_at ASC").
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

	var rules []*models.BusinessRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// Update rewrites the mutable fields of a rule.
func (r *RuleRepository) Update(ctx context.Context, rule *models.BusinessRule) error {
	query := squirrel.Update("business_rules").
		Set("name", rule.Name).
		Set("description", rule.Description).
		Set("condition_type", rule.ConditionType).
		Set("condition_config", rule.ConditionConfig).
		Set("action_type", rule.ActionType).
		Set("action_config", rule.ActionConfig).
		Set("priority", rule.Priority).
		Set("is_active", rule.IsActive).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": rule.ID, "organization_id": rule.OrganizationID}).
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

// Toggle flips is_active and returns the new state.
func (r *RuleRepository) Toggle(ctx context.Context, organizationID, id uuid.UUID) (bool, error) {
	query := squirrel.Update("business_rules").
		Set("is_active", squirrel.Expr("NOT is_active")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "organization_id": organizationID}).
		Suffix("RETURNING is_active").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	var isActive bool
	err = r.db.QueryRow(ctx, sql, args...).Scan(&isActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	return isActive, err
}

func (r *RuleRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	query := squirrel.Delete("business_rules").
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

func scanRule(row pgx.Row) (*models.BusinessRule, error) {
	var rule models.BusinessRule
	err := row.Scan(
		&rule.ID, &rule.OrganizationID, &rule.Name, &rule.Description,
		&rule.ConditionType, &rule.ConditionConfig, &rule.ActionType, &rule.ActionConfig,
		&rule.Priority, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
