package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/elsanchez/author-tools/internal/domain"
	"github.com/elsanchez/author-tools/internal/repository"
)

// JobRepository implementa repository.JobRepository usando SQLite
type JobRepository struct {
	db *sqlx.DB
}

// Compiletime check: asegura que implementa la interfaz
var _ repository.JobRepository = (*JobRepository)(nil)

// NewJobRepository crea un nuevo repositorio de jobs
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// jobRow mapea la tabla SQL a struct Go
type jobRow struct {
	ID           int64          `db:"id"`
	Kind         string         `db:"kind"`
	InputPaths   string         `db:"input_paths"`
	OptionsJSON  string         `db:"options"`
	Status       string         `db:"status"`
	TotalUsers   int            `db:"total_users"`
	Completed    int            `db:"completed"`
	CacheHits    int            `db:"cache_hits"`
	TotalPages   int            `db:"total_pages"`
	ErrorMessage sql.NullString `db:"error_message"`
	CreatedAt    int64          `db:"created_at"`
	CompletedAt  sql.NullInt64  `db:"completed_at"`
}

// Create inserta un nuevo job en estado pending
func (r *JobRepository) Create(ctx context.Context, job *domain.AnalysisJob) (int64, error) {
	paths, err := json.Marshal(job.InputPaths)
	if err != nil {
		return 0, fmt.Errorf("marshal input paths: %w", err)
	}
	opts, err := json.Marshal(job.Options)
	if err != nil {
		return 0, fmt.Errorf("marshal options: %w", err)
	}

	query := `
		INSERT INTO jobs (kind, input_paths, options, status)
		VALUES (:kind, :input_paths, :options, :status)
	`

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"kind":        string(job.Kind),
		"input_paths": string(paths),
		"options":     string(opts),
		"status":      string(domain.JobPending),
	})
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}

	return id, nil
}

// GetByID obtiene un job por ID
func (r *JobRepository) GetByID(ctx context.Context, id int64) (*domain.AnalysisJob, error) {
	var row jobRow

	query := `SELECT * FROM jobs WHERE id = ?`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job not found: %d", id)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}

	return jobRowToDomain(&row), nil
}

// GetPending obtiene los jobs pendientes en orden de creación
func (r *JobRepository) GetPending(ctx context.Context) ([]*domain.AnalysisJob, error) {
	var rows []jobRow

	query := `SELECT * FROM jobs WHERE status = 'pending' ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("get pending jobs: %w", err)
	}

	return jobRowsToDomain(rows), nil
}

// GetRecent obtiene los jobs más recientes
func (r *JobRepository) GetRecent(ctx context.Context, limit int) ([]*domain.AnalysisJob, error) {
	var rows []jobRow

	query := `SELECT * FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("get recent jobs: %w", err)
	}

	return jobRowsToDomain(rows), nil
}

// CountByStatus cuenta los jobs en un estado dado
func (r *JobRepository) CountByStatus(ctx context.Context, status domain.JobStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM jobs WHERE status = ?`
	if err := r.db.GetContext(ctx, &count, query, string(status)); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

// MarkRunning pasa un job a running y fija los totales del plan de páginas
func (r *JobRepository) MarkRunning(ctx context.Context, id int64, totalUsers, totalPages int) error {
	query := `
		UPDATE jobs
		SET status = 'running', total_users = ?, total_pages = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, totalUsers, totalPages, id)
	return err
}

// UpdateProgress actualiza los contadores de progreso de un job
func (r *JobRepository) UpdateProgress(ctx context.Context, id int64, completed, cacheHits int) error {
	query := `UPDATE jobs SET completed = ?, cache_hits = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, completed, cacheHits, id)
	return err
}

// MarkCompleted pasa un job a completed
func (r *JobRepository) MarkCompleted(ctx context.Context, id int64) error {
	query := `UPDATE jobs SET status = 'completed', completed_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now().Unix(), id)
	return err
}

// MarkFailed pasa un job a failed con su mensaje de error
func (r *JobRepository) MarkFailed(ctx context.Context, id int64, message string) error {
	query := `
		UPDATE jobs
		SET status = 'failed', error_message = ?, completed_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, message, time.Now().Unix(), id)
	return err
}

// SavePage persiste el payload JSON de resultados de una página
func (r *JobRepository) SavePage(ctx context.Context, jobID int64, page int, payload []byte) error {
	query := `
		INSERT INTO job_pages (job_id, page, payload)
		VALUES (?, ?, ?)
		ON CONFLICT (job_id, page) DO UPDATE SET payload = excluded.payload
	`
	_, err := r.db.ExecContext(ctx, query, jobID, page, string(payload))
	return err
}

// GetPage recupera el payload de resultados de una página
func (r *JobRepository) GetPage(ctx context.Context, jobID int64, page int) ([]byte, error) {
	var payload string
	query := `SELECT payload FROM job_pages WHERE job_id = ? AND page = ?`
	if err := r.db.GetContext(ctx, &payload, query, jobID, page); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("page %d not available for job %d", page, jobID)
		}
		return nil, fmt.Errorf("get page: %w", err)
	}
	return []byte(payload), nil
}

// Helper: conversión row → domain
func jobRowToDomain(row *jobRow) *domain.AnalysisJob {
	job := &domain.AnalysisJob{
		ID:         row.ID,
		Kind:       domain.JobKind(row.Kind),
		Status:     domain.JobStatus(row.Status),
		TotalUsers: row.TotalUsers,
		Completed:  row.Completed,
		CacheHits:  row.CacheHits,
		TotalPages: row.TotalPages,
		CreatedAt:  time.Unix(row.CreatedAt, 0),
	}

	json.Unmarshal([]byte(row.InputPaths), &job.InputPaths)
	json.Unmarshal([]byte(row.OptionsJSON), &job.Options)

	if row.ErrorMessage.Valid {
		job.ErrorMessage = row.ErrorMessage.String
	}
	if row.CompletedAt.Valid {
		t := time.Unix(row.CompletedAt.Int64, 0)
		job.CompletedAt = &t
	}

	return job
}

// Helper: conversión múltiples rows → domain
func jobRowsToDomain(rows []jobRow) []*domain.AnalysisJob {
	jobs := make([]*domain.AnalysisJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, jobRowToDomain(&row))
	}
	return jobs
}
