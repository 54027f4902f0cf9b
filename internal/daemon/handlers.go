package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/elsanchez/author-tools/internal/cache"
	"github.com/elsanchez/author-tools/internal/domain"
	"github.com/elsanchez/author-tools/internal/ingest"
	"github.com/elsanchez/author-tools/internal/repository"
)

// Tamaño de lote para los inserts de ingesta
const ingestBatchSize = 500

// Handlers maneja las peticiones del servidor
type Handlers struct {
	jobRepo      repository.JobRepository
	activityRepo repository.ActivityRepository
	accountCache *cache.Store
	manager      *JobManager
}

// NewHandlers crea un nuevo conjunto de handlers
func NewHandlers(
	jobRepo repository.JobRepository,
	activityRepo repository.ActivityRepository,
	accountCache *cache.Store,
	manager *JobManager,
) *Handlers {
	return &Handlers{
		jobRepo:      jobRepo,
		activityRepo: activityRepo,
		accountCache: accountCache,
		manager:      manager,
	}
}

// AnalyzePayload es el payload para encolar un análisis de creación
type AnalyzePayload struct {
	InputPath string `json:"input_path"`
	PageSize  int    `json:"page_size,omitempty"`
	SkipBots  bool   `json:"skip_bots,omitempty"`
}

// HandleAnalyze encola un job de análisis de cuentas. El input se valida
// acá, antes de cualquier actividad de red: un archivo inválido es el
// único error que corta la operación de entrada.
func (h *Handlers) HandleAnalyze(ctx context.Context, payload json.RawMessage) Response {
	var req AnalyzePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}

	if req.InputPath == "" {
		return Response{Success: false, Error: "input_path is required"}
	}
	if _, err := os.Stat(req.InputPath); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("input file not found: %s", req.InputPath)}
	}

	job := &domain.AnalysisJob{
		Kind:       domain.JobAnalyze,
		InputPaths: []string{req.InputPath},
		Options: domain.JobOptions{
			PageSize: req.PageSize,
			SkipBots: req.SkipBots,
		},
	}

	id, err := h.jobRepo.Create(ctx, job)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("create job: %v", err)}
	}

	data, _ := json.Marshal(map[string]interface{}{
		"id":     id,
		"kind":   domain.JobAnalyze,
		"status": domain.JobPending,
	})
	return Response{Success: true, Data: data}
}

// OverlapPayload es el payload para encolar un análisis de overlap
type OverlapPayload struct {
	InputPaths []string `json:"input_paths"`
	SkipBots   bool     `json:"skip_bots,omitempty"`
}

// HandleOverlap encola un job de usuarios superpuestos entre datasets
func (h *Handlers) HandleOverlap(ctx context.Context, payload json.RawMessage) Response {
	var req OverlapPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}

	if len(req.InputPaths) < 2 || len(req.InputPaths) > 5 {
		return Response{Success: false, Error: "overlap requires between 2 and 5 input files"}
	}
	for _, path := range req.InputPaths {
		if _, err := os.Stat(path); err != nil {
			return Response{Success: false, Error: fmt.Sprintf("input file not found: %s", path)}
		}
	}

	job := &domain.AnalysisJob{
		Kind:       domain.JobOverlap,
		InputPaths: req.InputPaths,
		Options:    domain.JobOptions{SkipBots: req.SkipBots},
	}

	id, err := h.jobRepo.Create(ctx, job)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("create job: %v", err)}
	}

	data, _ := json.Marshal(map[string]interface{}{
		"id":     id,
		"kind":   domain.JobOverlap,
		"status": domain.JobPending,
	})
	return Response{Success: true, Data: data}
}

// StatusPayload es el payload para consultar un job
type StatusPayload struct {
	ID int64 `json:"id"`
}

// HandleStatus retorna el estado y progreso de un job
func (h *Handlers) HandleStatus(ctx context.Context, payload json.RawMessage) Response {
	var req StatusPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}

	if req.ID == 0 {
		return Response{Success: false, Error: "id is required"}
	}

	job, err := h.jobRepo.GetByID(ctx, req.ID)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("get job: %v", err)}
	}

	data, _ := json.Marshal(map[string]interface{}{
		"id":            job.ID,
		"kind":          job.Kind,
		"status":        job.Status,
		"total_users":   job.TotalUsers,
		"completed":     job.Completed,
		"cache_hits":    job.CacheHits,
		"total_pages":   job.TotalPages,
		"error_message": job.ErrorMessage,
		"created_at":    job.CreatedAt,
		"completed_at":  job.CompletedAt,
	})
	return Response{Success: true, Data: data}
}

// ResultsPayload es el payload para pedir una página de resultados
type ResultsPayload struct {
	ID   int64 `json:"id"`
	Page int   `json:"page"`
}

// HandleResults retorna los records resueltos de una página de un job
func (h *Handlers) HandleResults(ctx context.Context, payload json.RawMessage) Response {
	var req ResultsPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}

	if req.ID == 0 {
		return Response{Success: false, Error: "id is required"}
	}

	page, err := h.jobRepo.GetPage(ctx, req.ID, req.Page)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("get results: %v", err)}
	}

	data, _ := json.Marshal(map[string]interface{}{
		"id":      req.ID,
		"page":    req.Page,
		"records": json.RawMessage(page),
	})
	return Response{Success: true, Data: data}
}

// IngestPayload es el payload para importar un dump JSONL
type IngestPayload struct {
	InputPath string `json:"input_path"`
}

// HandleIngest importa un dump JSONL al store de actividad
func (h *Handlers) HandleIngest(ctx context.Context, payload json.RawMessage) Response {
	var req IngestPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}

	if req.InputPath == "" {
		return Response{Success: false, Error: "input_path is required"}
	}

	total := 0
	batch := make([]domain.ActivityItem, 0, ingestBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := h.activityRepo.InsertItems(ctx, batch)
		if err != nil {
			return err
		}
		total += n
		batch = batch[:0]
		return nil
	}

	err := ingest.StreamItems(req.InputPath, func(item domain.ActivityItem) error {
		batch = append(batch, item)
		if len(batch) >= ingestBatchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("ingest: %v", err)}
	}

	data, _ := json.Marshal(map[string]interface{}{"inserted": total})
	return Response{Success: true, Data: data}
}

// AuthorsPayload es el payload para consultar authors únicos
type AuthorsPayload struct {
	WithList bool `json:"with_list,omitempty"`
}

// HandleAuthors retorna el conteo (y opcionalmente la lista) de authors
// únicos en el store de actividad
func (h *Handlers) HandleAuthors(ctx context.Context, payload json.RawMessage) Response {
	var req AuthorsPayload
	json.Unmarshal(payload, &req) // Payload vacío usa defaults

	count, err := h.activityRepo.CountAuthors(ctx)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("count authors: %v", err)}
	}

	result := map[string]interface{}{"count": count}
	if req.WithList {
		authors, err := h.activityRepo.UniqueAuthors(ctx)
		if err != nil {
			return Response{Success: false, Error: fmt.Sprintf("list authors: %v", err)}
		}
		result["authors"] = authors
	}

	data, _ := json.Marshal(result)
	return Response{Success: true, Data: data}
}

// CalendarPayload es el payload para un calendario de actividad
type CalendarPayload struct {
	Subreddit string `json:"subreddit,omitempty"`
	Author    string `json:"author,omitempty"`
}

// HandleCalendar retorna un calendario día → cantidad para un subreddit o
// un usuario
func (h *Handlers) HandleCalendar(ctx context.Context, payload json.RawMessage) Response {
	var req CalendarPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}

	var (
		calendar []domain.DateCount
		err      error
	)
	switch {
	case req.Subreddit != "":
		calendar, err = h.activityRepo.SubredditCalendar(ctx, req.Subreddit)
	case req.Author != "":
		calendar, err = h.activityRepo.AuthorCalendar(ctx, req.Author)
	default:
		return Response{Success: false, Error: "subreddit or author is required"}
	}
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("calendar: %v", err)}
	}

	data, _ := json.Marshal(map[string]interface{}{"calendar": calendar})
	return Response{Success: true, Data: data}
}

// HeatmapPayload es el payload para un heatmap de actividad
type HeatmapPayload struct {
	By string `json:"by"` // "hour" o "weekday"
}

// HandleHeatmap retorna la distribución de actividad por hora del día o
// día de la semana
func (h *Handlers) HandleHeatmap(ctx context.Context, payload json.RawMessage) Response {
	var req HeatmapPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}

	var (
		heatmap []domain.BucketCount
		err     error
	)
	switch req.By {
	case "hour":
		heatmap, err = h.activityRepo.HourHeatmap(ctx)
	case "weekday":
		heatmap, err = h.activityRepo.WeekdayHeatmap(ctx)
	default:
		return Response{Success: false, Error: "by must be \"hour\" or \"weekday\""}
	}
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("heatmap: %v", err)}
	}

	data, _ := json.Marshal(map[string]interface{}{"heatmap": heatmap})
	return Response{Success: true, Data: data}
}

// HandleStats retorna estadísticas del daemon
func (h *Handlers) HandleStats(ctx context.Context) Response {
	stats := make(map[string]interface{})

	for _, status := range []domain.JobStatus{
		domain.JobPending, domain.JobRunning, domain.JobCompleted, domain.JobFailed,
	} {
		count, err := h.jobRepo.CountByStatus(ctx, status)
		if err != nil {
			return Response{Success: false, Error: fmt.Sprintf("get stats: %v", err)}
		}
		stats[string(status)] = count
	}

	stats["workers_total"] = h.manager.workers
	stats["workers_busy"] = len(h.manager.workerPool)
	stats["cache_entries"] = h.accountCache.Len()

	data, _ := json.Marshal(stats)
	return Response{Success: true, Data: data}
}
