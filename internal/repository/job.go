package repository

import (
	"context"

	"github.com/elsanchez/author-tools/internal/domain"
)

// JobRepository define las operaciones sobre jobs de análisis
type JobRepository interface {
	Create(ctx context.Context, job *domain.AnalysisJob) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.AnalysisJob, error)
	GetPending(ctx context.Context) ([]*domain.AnalysisJob, error)
	GetRecent(ctx context.Context, limit int) ([]*domain.AnalysisJob, error)
	CountByStatus(ctx context.Context, status domain.JobStatus) (int, error)

	// Transiciones de estado
	MarkRunning(ctx context.Context, id int64, totalUsers, totalPages int) error
	UpdateProgress(ctx context.Context, id int64, completed, cacheHits int) error
	MarkCompleted(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, message string) error

	// Resultados por página, persistidos como JSON
	SavePage(ctx context.Context, jobID int64, page int, payload []byte) error
	GetPage(ctx context.Context, jobID int64, page int) ([]byte, error)
}
