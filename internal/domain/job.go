package domain

import "time"

// JobKind representa los tipos de análisis que corren en el daemon
type JobKind string

const (
	JobAnalyze JobKind = "analyze"
	JobOverlap JobKind = "overlap"
)

// JobStatus representa los estados posibles de un job
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobOptions contiene las opciones de un análisis
type JobOptions struct {
	PageSize int  `json:"page_size,omitempty"`
	SkipBots bool `json:"skip_bots,omitempty"`
}

// AnalysisJob representa un análisis encolado en el daemon
type AnalysisJob struct {
	ID           int64
	Kind         JobKind
	InputPaths   []string
	Options      JobOptions
	Status       JobStatus
	TotalUsers   int
	Completed    int
	CacheHits    int
	TotalPages   int
	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// IsDone retorna true si el job terminó (con o sin error)
func (j *AnalysisJob) IsDone() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
