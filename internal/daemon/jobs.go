package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/elsanchez/author-tools/internal/domain"
	"github.com/elsanchez/author-tools/internal/fetcher"
	"github.com/elsanchez/author-tools/internal/ingest"
	"github.com/elsanchez/author-tools/internal/pager"
	"github.com/elsanchez/author-tools/internal/repository"
)

// Cada cuántos items completados se persiste el progreso
const progressFlushEvery = 25

// pageRecord es la forma wire de un AccountRecord en los payloads de
// página. Count solo se usa en jobs de overlap.
type pageRecord struct {
	Username     string `json:"username"`
	Status       string `json:"status"`
	CreationDate string `json:"creation_date,omitempty"`
	Source       string `json:"source"`
	LastActivity string `json:"last_activity,omitempty"`
	Count        int    `json:"count,omitempty"`
}

// JobManager corre los jobs de análisis pendientes con workers paralelos.
// Un job resuelve su lista de usernames página por página via el batch
// fetcher y persiste los resultados de cada página en SQLite.
type JobManager struct {
	jobRepo      repository.JobRepository
	fetcher      *fetcher.BatchFetcher
	skipListPath string
	workers      int
	workerPool   chan struct{}
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	pollInterval time.Duration
}

// NewJobManager crea un nuevo gestor de jobs
func NewJobManager(jobRepo repository.JobRepository, batchFetcher *fetcher.BatchFetcher, skipListPath string, workers int) *JobManager {
	ctx, cancel := context.WithCancel(context.Background())

	if workers <= 0 {
		workers = 2 // Default: 2 análisis paralelos
	}

	return &JobManager{
		jobRepo:      jobRepo,
		fetcher:      batchFetcher,
		skipListPath: skipListPath,
		workers:      workers,
		workerPool:   make(chan struct{}, workers),
		ctx:          ctx,
		cancel:       cancel,
		pollInterval: 2 * time.Second,
	}
}

// Start inicia el job manager
func (m *JobManager) Start() {
	log.Printf("Job manager started with %d workers", m.workers)
	go m.processLoop()
}

// Stop detiene el job manager
func (m *JobManager) Stop() {
	log.Println("Job manager stopping...")
	m.cancel()
	m.wg.Wait()
	log.Println("Job manager stopped")
}

// processLoop es el loop principal que busca jobs pendientes
func (m *JobManager) processLoop() {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	// Procesar inmediatamente al inicio
	m.checkPendingJobs()

	for {
		select {
		case <-m.ctx.Done():
			log.Println("Process loop shutting down")
			return

		case <-ticker.C:
			m.checkPendingJobs()
		}
	}
}

// checkPendingJobs verifica jobs pendientes y los procesa
func (m *JobManager) checkPendingJobs() {
	pending, err := m.jobRepo.GetPending(m.ctx)
	if err != nil {
		log.Printf("Error getting pending jobs: %v", err)
		return
	}

	for _, job := range pending {
		select {
		case <-m.ctx.Done():
			return
		case m.workerPool <- struct{}{}: // Obtener slot de worker
			m.wg.Add(1)
			go m.processJob(job)
		default:
			// Pool lleno, procesar en siguiente tick
			log.Printf("Worker pool full, job %d queued for next tick", job.ID)
		}
	}
}

// processJob corre un job individual
func (m *JobManager) processJob(job *domain.AnalysisJob) {
	defer m.wg.Done()
	defer func() { <-m.workerPool }() // Liberar slot

	log.Printf("Processing job %d (%s)", job.ID, job.Kind)

	// Marcar running de inmediato para que no se re-despache
	if err := m.jobRepo.MarkRunning(m.ctx, job.ID, 0, 0); err != nil {
		log.Printf("Failed to mark job %d running: %v", job.ID, err)
		return
	}

	if err := m.runJob(job); err != nil {
		log.Printf("Job %d failed: %v", job.ID, err)
		m.jobRepo.MarkFailed(m.ctx, job.ID, err.Error())
		return
	}

	if err := m.jobRepo.MarkCompleted(m.ctx, job.ID); err != nil {
		log.Printf("Failed to mark job %d completed: %v", job.ID, err)
		return
	}

	log.Printf("Job %d completed", job.ID)
}

// runJob arma la lista de usernames del job, la pagina y resuelve página
// por página. Los errores de input local se reportan acá, antes de tocar
// la red; las fallas upstream nunca llegan como error (degradan a
// unresolved dentro del fetcher).
func (m *JobManager) runJob(job *domain.AnalysisJob) error {
	usernames, counts, err := m.loadUsernames(job)
	if err != nil {
		return err
	}

	skipSet, err := ingest.LoadSkipList(m.skipListPath)
	if err != nil {
		return err
	}

	suffix := ""
	if job.Options.SkipBots {
		suffix = pager.BotSuffix
	}
	filtered := pager.Filter(usernames, skipSet, suffix)
	if len(filtered) == 0 {
		return fmt.Errorf("no usernames left after applying skip rules")
	}

	pages := pager.Pages(filtered, job.Options.PageSize)
	if err := m.jobRepo.MarkRunning(m.ctx, job.ID, len(filtered), len(pages)); err != nil {
		return fmt.Errorf("update job plan: %w", err)
	}

	totalDone := 0
	totalHits := 0

	for i, page := range pages {
		pageBase := totalDone
		pageHits := totalHits

		// El primer callback de cada página llega tras la partición de
		// cache, con el conteo de hits ya definitivo: se persiste de
		// inmediato y después cada progressFlushEvery items
		lastFlush := -1
		result := m.fetcher.FetchBatch(m.ctx, page, func(completed, hits int) {
			if lastFlush < 0 || completed-lastFlush >= progressFlushEvery {
				m.jobRepo.UpdateProgress(m.ctx, job.ID, pageBase+completed, pageHits+hits)
				lastFlush = completed
			}
		})

		totalDone += len(page)
		totalHits += result.CacheHits
		m.jobRepo.UpdateProgress(m.ctx, job.ID, totalDone, totalHits)

		// Las páginas se numeran desde 1 de cara al cliente
		payload, err := marshalPage(result.Records, counts)
		if err != nil {
			return fmt.Errorf("marshal page %d: %w", i+1, err)
		}
		if err := m.jobRepo.SavePage(m.ctx, job.ID, i+1, payload); err != nil {
			return fmt.Errorf("save page %d: %w", i+1, err)
		}

		select {
		case <-m.ctx.Done():
			return m.ctx.Err()
		default:
		}
	}

	return nil
}

// loadUsernames arma la lista de entrada según el tipo de job. Para
// overlap retorna además el conteo de datasets por username.
func (m *JobManager) loadUsernames(job *domain.AnalysisJob) ([]string, map[string]int, error) {
	switch job.Kind {
	case domain.JobAnalyze:
		if len(job.InputPaths) != 1 {
			return nil, nil, fmt.Errorf("analyze job requires exactly one input file")
		}
		usernames, err := ingest.ReadUsernameList(job.InputPaths[0])
		if err != nil {
			return nil, nil, err
		}
		return usernames, nil, nil

	case domain.JobOverlap:
		if len(job.InputPaths) < 2 {
			return nil, nil, fmt.Errorf("overlap job requires at least two input files")
		}
		sets := make([]map[string]struct{}, 0, len(job.InputPaths))
		for _, path := range job.InputPaths {
			usernames, err := ingest.ReadUsernameList(path)
			if err != nil {
				return nil, nil, err
			}
			sets = append(sets, ingest.ToSet(usernames))
		}
		overlapping, counts := ingest.Overlap(sets)
		if len(overlapping) == 0 {
			return nil, nil, fmt.Errorf("no overlapping usernames found")
		}
		return overlapping, counts, nil

	default:
		return nil, nil, fmt.Errorf("unknown job kind: %s", job.Kind)
	}
}

// marshalPage serializa los records de una página al formato wire
func marshalPage(records []domain.AccountRecord, counts map[string]int) ([]byte, error) {
	const dateLayout = "2006-01-02"

	out := make([]pageRecord, 0, len(records))
	for _, rec := range records {
		pr := pageRecord{
			Username: rec.Username,
			Status:   string(rec.Status),
			Source:   string(rec.Source),
		}
		if rec.CreationDate != nil {
			pr.CreationDate = rec.CreationDate.Format(dateLayout)
		}
		if rec.LastActivity != nil {
			pr.LastActivity = rec.LastActivity.Format(dateLayout)
		}
		if counts != nil {
			pr.Count = counts[rec.Username]
		}
		out = append(out, pr)
	}

	return json.Marshal(out)
}
