package repository

import (
	"context"

	"github.com/elsanchez/author-tools/internal/domain"
)

// ActivityRepository define las operaciones sobre registros de actividad
// importados de dumps JSONL
type ActivityRepository interface {
	// Ingesta
	InsertItems(ctx context.Context, items []domain.ActivityItem) (int, error)

	// Agregados
	CountItems(ctx context.Context) (int, error)
	CountAuthors(ctx context.Context) (int, error)
	UniqueAuthors(ctx context.Context) ([]string, error)

	// Calendarios de actividad (día → cantidad)
	SubredditCalendar(ctx context.Context, subreddit string) ([]domain.DateCount, error)
	AuthorCalendar(ctx context.Context, author string) ([]domain.DateCount, error)

	// Heatmaps
	HourHeatmap(ctx context.Context) ([]domain.BucketCount, error)
	WeekdayHeatmap(ctx context.Context) ([]domain.BucketCount, error)
}
