package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/patient-summaries/internal/database"
	"github.com/patient-summaries/internal/domain"
)

// SQLExporter writes a summary table into a relational database
type SQLExporter struct {
	db      *sql.DB
	dialect database.Dialect
	logger  *logrus.Logger
}

// NewSQLExporter creates an exporter over db
func NewSQLExporter(db *sql.DB, dialect database.Dialect, logger *logrus.Logger) *SQLExporter {
	return &SQLExporter{db: db, dialect: dialect, logger: logger}
}

// QuoteIdent quotes a table or column name for both SQLite and PostgreSQL.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Statements returns the drop, create and insert statements for t.
func (e *SQLExporter) Statements(tableName string, t *domain.WideTable) (drop, create, insert string) {
	table := QuoteIdent(tableName)
	drop = "DROP TABLE IF EXISTS " + table

	defs := []string{
		QuoteIdent(domain.ParticipantIDColumn) + " BIGINT NOT NULL",
		QuoteIdent(domain.VisitDateColumn) + " TEXT NOT NULL",
	}
	names := []string{QuoteIdent(domain.ParticipantIDColumn), QuoteIdent(domain.VisitDateColumn)}
	for _, col := range t.Columns {
		defs = append(defs, QuoteIdent(col)+" TEXT")
		names = append(names, QuoteIdent(col))
	}
	defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s, %s)", names[0], names[1]))
	create = fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))

	placeholders := make([]string, len(names))
	for i := range names {
		placeholders[i] = e.dialect.Placeholder(i + 1)
	}
	insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), strings.Join(placeholders, ", "))
	return drop, create, insert
}

// Export replaces tableName with the contents of t in one transaction.
// Absent cells are stored as NULL.
func (e *SQLExporter) Export(ctx context.Context, tableName string, t *domain.WideTable) (err error) {
	startTime := time.Now()
	drop, create, insert := e.Statements(tableName, t)

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, drop); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	if _, err = tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(t.Columns)+2)
	for _, row := range t.Rows {
		args[0] = row.Visit.ParticipantID
		args[1] = row.Visit.VisitDate.Format(domain.DateLayout)
		for i, col := range t.Columns {
			if v, ok := row.Cells[col]; ok {
				args[i+2] = v
			} else {
				args[i+2] = nil
			}
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert visit %s: %w", row.Visit, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit export: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"dialect":         e.dialect,
		"table":           tableName,
		"rows":            t.Len(),
		"columns":         len(t.Columns) + 2,
		"processing_time": time.Since(startTime),
	}).Info("Exported patient summaries to database")
	return nil
}
