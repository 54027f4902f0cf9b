package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elsanchez/author-tools/internal/domain"
)

func TestDatabase_MigrationsApplied(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	// Verificar que existe el archivo de base de datos
	dbPath := filepath.Join(tmpDir, "author-tools.db")
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("expected database file at %s: %v", dbPath, err)
	}

	// Las tablas deben existir y estar vacías
	ctx := context.Background()
	count, err := db.ActivityRepo.CountItems(ctx)
	if err != nil {
		t.Fatalf("activity_items table missing: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty activity_items, got %d", count)
	}

	pending, err := db.JobRepo.CountByStatus(ctx, domain.JobPending)
	if err != nil {
		t.Fatalf("jobs table missing: %v", err)
	}
	if pending != 0 {
		t.Errorf("expected no pending jobs, got %d", pending)
	}

	t.Log("✅ Migraciones aplicadas")
}

func TestJobRepository_Lifecycle(t *testing.T) {
	db, err := NewDatabase(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	job := &domain.AnalysisJob{
		Kind:       domain.JobAnalyze,
		InputPaths: []string{"/data/export.jsonl"},
		Options:    domain.JobOptions{PageSize: 500, SkipBots: true},
	}

	id, err := db.JobRepo.Create(ctx, job)
	if err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero ID")
	}

	// Recién creado: pending con opciones intactas
	got, err := db.JobRepo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("failed to get job: %v", err)
	}
	if got.Status != domain.JobPending {
		t.Errorf("expected status pending, got %s", got.Status)
	}
	if len(got.InputPaths) != 1 || got.InputPaths[0] != "/data/export.jsonl" {
		t.Errorf("expected input paths preserved, got %v", got.InputPaths)
	}
	if got.Options.PageSize != 500 || !got.Options.SkipBots {
		t.Errorf("expected options preserved, got %+v", got.Options)
	}

	// Debe aparecer en los pendientes
	pending, err := db.JobRepo.GetPending(ctx)
	if err != nil {
		t.Fatalf("failed to get pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Errorf("expected job %d pending, got %v", id, pending)
	}

	// running con totales
	if err := db.JobRepo.MarkRunning(ctx, id, 2500, 3); err != nil {
		t.Fatalf("failed to mark running: %v", err)
	}
	if err := db.JobRepo.UpdateProgress(ctx, id, 1200, 300); err != nil {
		t.Fatalf("failed to update progress: %v", err)
	}

	got, _ = db.JobRepo.GetByID(ctx, id)
	if got.Status != domain.JobRunning {
		t.Errorf("expected status running, got %s", got.Status)
	}
	if got.TotalUsers != 2500 || got.TotalPages != 3 {
		t.Errorf("expected totals 2500/3, got %d/%d", got.TotalUsers, got.TotalPages)
	}
	if got.Completed != 1200 || got.CacheHits != 300 {
		t.Errorf("expected progress 1200/300, got %d/%d", got.Completed, got.CacheHits)
	}

	// completed
	if err := db.JobRepo.MarkCompleted(ctx, id); err != nil {
		t.Fatalf("failed to mark completed: %v", err)
	}
	got, _ = db.JobRepo.GetByID(ctx, id)
	if got.Status != domain.JobCompleted {
		t.Errorf("expected status completed, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at set")
	}
	if !got.IsDone() {
		t.Error("expected IsDone true")
	}

	t.Logf("✅ Job %d pasó por todo el ciclo de vida", id)
}

func TestJobRepository_MarkFailed(t *testing.T) {
	db, err := NewDatabase(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	id, err := db.JobRepo.Create(ctx, &domain.AnalysisJob{
		Kind:       domain.JobAnalyze,
		InputPaths: []string{"/missing.jsonl"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.JobRepo.MarkFailed(ctx, id, "input file not found"); err != nil {
		t.Fatalf("failed to mark failed: %v", err)
	}

	got, _ := db.JobRepo.GetByID(ctx, id)
	if got.Status != domain.JobFailed {
		t.Errorf("expected status failed, got %s", got.Status)
	}
	if got.ErrorMessage != "input file not found" {
		t.Errorf("expected error message preserved, got %q", got.ErrorMessage)
	}
}

func TestJobRepository_Pages(t *testing.T) {
	db, err := NewDatabase(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	id, err := db.JobRepo.Create(ctx, &domain.AnalysisJob{
		Kind:       domain.JobAnalyze,
		InputPaths: []string{"/data/export.jsonl"},
	})
	if err != nil {
		t.Fatal(err)
	}

	payload, _ := json.Marshal(map[string]any{
		"records": []map[string]any{{"username": "alice", "status": "active"}},
	})

	if err := db.JobRepo.SavePage(ctx, id, 1, payload); err != nil {
		t.Fatalf("failed to save page: %v", err)
	}

	back, err := db.JobRepo.GetPage(ctx, id, 1)
	if err != nil {
		t.Fatalf("failed to get page: %v", err)
	}

	var decoded struct {
		Records []struct {
			Username string `json:"username"`
		} `json:"records"`
	}
	if err := json.Unmarshal(back, &decoded); err != nil {
		t.Fatalf("page payload not valid JSON: %v", err)
	}
	if len(decoded.Records) != 1 || decoded.Records[0].Username != "alice" {
		t.Errorf("unexpected page payload: %s", back)
	}

	// Re-guardar la misma página reemplaza el payload
	payload2 := []byte(`{"records": []}`)
	if err := db.JobRepo.SavePage(ctx, id, 1, payload2); err != nil {
		t.Fatalf("failed to overwrite page: %v", err)
	}
	back, _ = db.JobRepo.GetPage(ctx, id, 1)
	if string(back) != string(payload2) {
		t.Errorf("expected overwritten payload, got %s", back)
	}

	// Página inexistente
	if _, err := db.JobRepo.GetPage(ctx, id, 99); err == nil {
		t.Error("expected error for missing page")
	}
}

func TestActivityRepository_InsertAndAggregate(t *testing.T) {
	db, err := NewDatabase(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	at := func(value string) time.Time {
		ts, err := time.Parse("2006-01-02 15:04:05", value)
		if err != nil {
			t.Fatal(err)
		}
		return ts.UTC()
	}

	items := []domain.ActivityItem{
		{Author: "alice", Subreddit: "golang", Kind: domain.ItemPost, CreatedAt: at("2015-06-15 12:30:00")},
		{Author: "alice", Subreddit: "golang", Kind: domain.ItemComment, CreatedAt: at("2015-06-15 18:00:00")},
		{Author: "Bob", Subreddit: "rust", Kind: domain.ItemComment, CreatedAt: at("2015-06-16 12:15:00")},
		{Author: "alice", Subreddit: "rust", Kind: domain.ItemComment, CreatedAt: at("2015-06-16 12:45:00")},
	}

	inserted, err := db.ActivityRepo.InsertItems(ctx, items)
	if err != nil {
		t.Fatalf("failed to insert items: %v", err)
	}
	if inserted != 4 {
		t.Fatalf("expected 4 inserted, got %d", inserted)
	}

	count, _ := db.ActivityRepo.CountItems(ctx)
	if count != 4 {
		t.Errorf("expected 4 items, got %d", count)
	}

	authorsCount, _ := db.ActivityRepo.CountAuthors(ctx)
	if authorsCount != 2 {
		t.Errorf("expected 2 unique authors, got %d", authorsCount)
	}

	authors, _ := db.ActivityRepo.UniqueAuthors(ctx)
	if len(authors) != 2 || authors[0] != "Bob" || authors[1] != "alice" {
		t.Errorf("expected sorted authors [Bob alice], got %v", authors)
	}

	// Calendario por subreddit
	calendar, err := db.ActivityRepo.SubredditCalendar(ctx, "golang")
	if err != nil {
		t.Fatalf("failed to get calendar: %v", err)
	}
	if len(calendar) != 1 || calendar[0].Date != "2015-06-15" || calendar[0].Count != 2 {
		t.Errorf("unexpected subreddit calendar: %v", calendar)
	}

	// Calendario por author, case-insensitive
	calendar, err = db.ActivityRepo.AuthorCalendar(ctx, "ALICE")
	if err != nil {
		t.Fatalf("failed to get author calendar: %v", err)
	}
	total := 0
	for _, dc := range calendar {
		total += dc.Count
	}
	if total != 3 {
		t.Errorf("expected 3 items for alice, got %d (%v)", total, calendar)
	}

	// Heatmap por hora: 12h acumula 3 items
	heatmap, err := db.ActivityRepo.HourHeatmap(ctx)
	if err != nil {
		t.Fatalf("failed to get hour heatmap: %v", err)
	}
	hours := make(map[int]int)
	for _, bc := range heatmap {
		hours[bc.Bucket] = bc.Count
	}
	if hours[12] != 3 {
		t.Errorf("expected 3 items at hour 12, got %d (%v)", hours[12], heatmap)
	}
	if hours[18] != 1 {
		t.Errorf("expected 1 item at hour 18, got %d", hours[18])
	}

	// Heatmap por día de semana: 2015-06-15 fue lunes (1), 06-16 martes (2)
	weekdays, err := db.ActivityRepo.WeekdayHeatmap(ctx)
	if err != nil {
		t.Fatalf("failed to get weekday heatmap: %v", err)
	}
	byDay := make(map[int]int)
	for _, bc := range weekdays {
		byDay[bc.Bucket] = bc.Count
	}
	if byDay[1] != 2 || byDay[2] != 2 {
		t.Errorf("expected 2 items monday and 2 tuesday, got %v", weekdays)
	}

	t.Log("✅ Agregados de actividad correctos")
}
