package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/ports"
)

// PostgresRepository appends completed analyses to analysis_reports:
//
//	CREATE TABLE analysis_reports (
//	    run_id          UUID PRIMARY KEY,
//	    project_name    TEXT NOT NULL,
//	    grade           TEXT NOT NULL,
//	    composite_score INTEGER NOT NULL,
//	    no_funding      BOOLEAN NOT NULL,
//	    payload         JSONB NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresRepository struct {
	db   *sql.DB
	psql sq.StatementBuilderType
}

var _ ports.ReportRepository = (*PostgresRepository)(nil)

const reportsTable = "analysis_reports"

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveReport inserts the report; re-saving the same run is a no-op.
func (r *PostgresRepository) SaveReport(ctx context.Context, report domain.StoredReport) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.insertReport(report).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// LatestReports returns up to limit reports for a project, newest first.
func (r *PostgresRepository) LatestReports(ctx context.Context, projectName string, limit int) ([]domain.StoredReport, error) {
	if r.db == nil {
		return []domain.StoredReport{}, nil
	}

	query, args, err := r.selectLatest(projectName, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}

	result := make([]domain.StoredReport, 0, limit)
	for rows.Next() {
		var (
			report domain.StoredReport
			grade  string
		)
		if err := rows.Scan(&report.RunID, &report.ProjectName, &grade, &report.CompositeScore,
			&report.NoFunding, &report.Payload, &report.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan report: %w", err)
		}
		report.Grade = domain.Grade(grade)
		result = append(result, report)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func (r *PostgresRepository) insertReport(report domain.StoredReport) sq.InsertBuilder {
	return r.psql.Insert(pq.QuoteIdentifier(reportsTable)).
		Columns("run_id", "project_name", "grade", "composite_score", "no_funding", "payload", "created_at").
		Values(report.RunID, report.ProjectName, string(report.Grade), report.CompositeScore,
			report.NoFunding, report.Payload, report.CreatedAt.UTC()).
		Suffix("ON CONFLICT (run_id) DO NOTHING")
}

func (r *PostgresRepository) selectLatest(projectName string, limit int) sq.SelectBuilder {
	if limit <= 0 {
		limit = 10
	}
	return r.psql.Select("run_id", "project_name", "grade", "composite_score", "no_funding", "payload", "created_at").
		From(pq.QuoteIdentifier(reportsTable)).
		Where(sq.Eq{"project_name": projectName}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
}
