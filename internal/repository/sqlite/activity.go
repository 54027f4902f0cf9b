package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/elsanchez/author-tools/internal/domain"
	"github.com/elsanchez/author-tools/internal/repository"
)

// ActivityRepository implementa repository.ActivityRepository usando SQLite
type ActivityRepository struct {
	db *sqlx.DB
}

// Compiletime check: asegura que implementa la interfaz
var _ repository.ActivityRepository = (*ActivityRepository)(nil)

// NewActivityRepository crea un nuevo repositorio de actividad
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// InsertItems inserta un lote de registros en una transacción y retorna la
// cantidad insertada
func (r *ActivityRepository) InsertItems(ctx context.Context, items []domain.ActivityItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activity_items (author, subreddit, kind, created_utc)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, item := range items {
		var subreddit any
		if item.Subreddit != "" {
			subreddit = item.Subreddit
		}
		if _, err := stmt.ExecContext(ctx, item.Author, subreddit, string(item.Kind), item.CreatedAt.Unix()); err != nil {
			return 0, fmt.Errorf("insert activity item: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return inserted, nil
}

// CountItems retorna la cantidad total de registros importados
func (r *ActivityRepository) CountItems(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM activity_items`); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// CountAuthors retorna la cantidad de authors únicos
func (r *ActivityRepository) CountAuthors(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(DISTINCT author) FROM activity_items`); err != nil {
		return 0, fmt.Errorf("count authors: %w", err)
	}
	return count, nil
}

// UniqueAuthors retorna los authors únicos ordenados
func (r *ActivityRepository) UniqueAuthors(ctx context.Context) ([]string, error) {
	var authors []string
	query := `SELECT DISTINCT author FROM activity_items ORDER BY author`
	if err := r.db.SelectContext(ctx, &authors, query); err != nil {
		return nil, fmt.Errorf("unique authors: %w", err)
	}
	return authors, nil
}

// dateCountRow mapea una fila de calendario
type dateCountRow struct {
	Date  string `db:"d"`
	Count int    `db:"c"`
}

// SubredditCalendar retorna el calendario de actividad de un subreddit
func (r *ActivityRepository) SubredditCalendar(ctx context.Context, subreddit string) ([]domain.DateCount, error) {
	query := `
		SELECT date(created_utc, 'unixepoch') AS d, COUNT(*) AS c
		FROM activity_items
		WHERE subreddit = ?
		GROUP BY d
		ORDER BY d
	`
	return r.selectCalendar(ctx, query, subreddit)
}

// AuthorCalendar retorna el calendario de actividad de un usuario
func (r *ActivityRepository) AuthorCalendar(ctx context.Context, author string) ([]domain.DateCount, error) {
	query := `
		SELECT date(created_utc, 'unixepoch') AS d, COUNT(*) AS c
		FROM activity_items
		WHERE author = ? COLLATE NOCASE
		GROUP BY d
		ORDER BY d
	`
	return r.selectCalendar(ctx, query, author)
}

func (r *ActivityRepository) selectCalendar(ctx context.Context, query string, arg any) ([]domain.DateCount, error) {
	var rows []dateCountRow
	if err := r.db.SelectContext(ctx, &rows, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("select calendar: %w", err)
	}

	calendar := make([]domain.DateCount, 0, len(rows))
	for _, row := range rows {
		calendar = append(calendar, domain.DateCount{Date: row.Date, Count: row.Count})
	}
	return calendar, nil
}

// bucketCountRow mapea una fila de heatmap
type bucketCountRow struct {
	Bucket int `db:"b"`
	Count  int `db:"c"`
}

// HourHeatmap retorna la distribución de actividad por hora del día (UTC)
func (r *ActivityRepository) HourHeatmap(ctx context.Context) ([]domain.BucketCount, error) {
	query := `
		SELECT CAST(strftime('%H', created_utc, 'unixepoch') AS INTEGER) AS b, COUNT(*) AS c
		FROM activity_items
		GROUP BY b
		ORDER BY b
	`
	return r.selectHeatmap(ctx, query)
}

// WeekdayHeatmap retorna la distribución por día de la semana (domingo = 0)
func (r *ActivityRepository) WeekdayHeatmap(ctx context.Context) ([]domain.BucketCount, error) {
	query := `
		SELECT CAST(strftime('%w', created_utc, 'unixepoch') AS INTEGER) AS b, COUNT(*) AS c
		FROM activity_items
		GROUP BY b
		ORDER BY b
	`
	return r.selectHeatmap(ctx, query)
}

func (r *ActivityRepository) selectHeatmap(ctx context.Context, query string) ([]domain.BucketCount, error) {
	var rows []bucketCountRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select heatmap: %w", err)
	}

	heatmap := make([]domain.BucketCount, 0, len(rows))
	for _, row := range rows {
		heatmap = append(heatmap, domain.BucketCount{Bucket: row.Bucket, Count: row.Count})
	}
	return heatmap, nil
}
