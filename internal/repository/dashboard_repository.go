package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DashboardRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDashboardRepository(db *pgxpool.Pool, logger *zap.Logger) *DashboardRepository {
	return &DashboardRepository{
		db:     db,
		logger: logger,
	}
}

// DailyVolume is one day of inbound message traffic.
type DailyVolume struct {
	Day   time.Time
	Count int64
}

// MonthlyStats aggregates the current calendar month for one organization.
type MonthlyStats struct {
	TotalConversations int64
	AIHandled          int64
	Transferred        int64
	TotalMessages      int64
}

func (r *DashboardRepository) MonthlyStats(ctx context.Context, organizationID uuid.UUID) (*MonthlyStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE handled_by = 'ai'),
			COUNT(*) FILTER (WHERE status = 'transferred')
		FROM conversations
		WHERE organization_id = $1
		  AND created_at >= date_trunc('month', NOW())`

	var stats MonthlyStats
	err := r.db.QueryRow(ctx, query, organizationID).Scan(
		&stats.TotalConversations, &stats.AIHandled, &stats.Transferred,
	)
	if err != nil {
		return nil, err
	}

	const msgQuery = `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.organization_id = $1
		  AND m.created_at >= date_trunc('month', NOW())`

	if err := r.db.QueryRow(ctx, msgQuery, organizationID).Scan(&stats.TotalMessages); err != nil {
		return nil, err
	}

	return &stats, nil
}

// DailyMessageVolume returns per-day inbound client message counts for the
// last `days` days, oldest first. Days without traffic are included as zero.
func (r *DashboardRepository) DailyMessageVolume(ctx context.Context, organizationID uuid.UUID, days int) ([]DailyVolume, error) {
	const query = `
		SELECT d.day, COALESCE(v.count, 0)
		FROM generate_series(
			date_trunc('day', NOW()) - ($2::int - 1) * INTERVAL '1 day',
			date_trunc('day', NOW()),
			INTERVAL '1 day'
		) AS d(day)
		LEFT JOIN (
			SELECT date_trunc('day', m.created_at) AS day, COUNT(*) AS count
			FROM messages m
			JOIN conversations c ON c.id = m.conversation_id
			WHERE c.organization_id = $1
			  AND m.sender = 'client'
			GROUP BY 1
		) v ON v.day = d.day
		ORDER BY d.day ASC`

	rows, err := r.db.Query(ctx, query, organizationID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var volumes []DailyVolume
	for rows.Next() {
		var v DailyVolume
		if err := rows.Scan(&v.Day, &v.Count); err != nil {
			return nil, err
		}
		volumes = append(volumes, v)
	}

	return volumes, rows.Err()
}
