package fetcher

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elsanchez/author-tools/internal/cache"
	"github.com/elsanchez/author-tools/internal/domain"
)

// fakeResolver cuenta resoluciones y asigna fechas fijas por username
type fakeResolver struct {
	calls int64
	dates map[string]string
	panic map[string]bool
}

func (f *fakeResolver) Resolve(ctx context.Context, username string) domain.AccountRecord {
	atomic.AddInt64(&f.calls, 1)

	if f.panic[username] {
		panic("resolver blew up")
	}

	rec := domain.AccountRecord{
		Username: username,
		Status:   domain.StatusActive,
		Source:   domain.SourceUnresolved,
	}
	if date, ok := f.dates[username]; ok && date != "" {
		t, _ := time.Parse("2006-01-02", date)
		rec.CreationDate = &t
		rec.Source = domain.SourceAuthoritative
	}
	return rec
}

func newTestFetcher(t *testing.T, res *fakeResolver) (*BatchFetcher, *cache.Store) {
	t.Helper()
	store := cache.Open(filepath.Join(t.TempDir(), "cache.json"))
	return New(store, res, 4), store
}

func TestFetchBatch_ResolvesAndSorts(t *testing.T) {
	res := &fakeResolver{dates: map[string]string{
		"zoe":   "2012-03-01",
		"alice": "2015-01-01",
		"Bob":   "2015-06-15",
		"carol": "", // sin fecha: al final
	}}
	f, _ := newTestFetcher(t, res)

	result := f.FetchBatch(context.Background(), []string{"carol", "Bob", "alice", "zoe"}, nil)

	if len(result.Records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(result.Records))
	}
	if result.CacheHits != 0 {
		t.Errorf("expected 0 cache hits on cold cache, got %d", result.CacheHits)
	}

	// Orden: año asc, sin resolver al final, username como desempate
	wantOrder := []string{"zoe", "alice", "Bob", "carol"}
	for i, want := range wantOrder {
		if result.Records[i].Username != want {
			t.Errorf("position %d: expected %s, got %s", i, want, result.Records[i].Username)
		}
	}

	t.Log("✅ Batch resuelto y ordenado por año de creación")
}

func TestFetchBatch_CacheHitsSkipNetwork(t *testing.T) {
	res := &fakeResolver{dates: map[string]string{
		"alice": "2015-01-01",
		"bob":   "2018-06-15",
	}}
	f, _ := newTestFetcher(t, res)

	// Primer batch: todo va a la red
	f.FetchBatch(context.Background(), []string{"alice", "bob"}, nil)
	if got := atomic.LoadInt64(&res.calls); got != 2 {
		t.Fatalf("expected 2 resolver calls, got %d", got)
	}

	// Segundo batch idéntico: cero llamadas nuevas
	result := f.FetchBatch(context.Background(), []string{"ALICE", "Bob"}, nil)
	if got := atomic.LoadInt64(&res.calls); got != 2 {
		t.Errorf("expected no new resolver calls, got %d total", got)
	}
	if result.CacheHits != 2 {
		t.Errorf("expected 2 cache hits, got %d", result.CacheHits)
	}
	if len(result.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(result.Records))
	}

	t.Log("✅ Segundo batch servido completo desde cache")
}

func TestFetchBatch_MonotonicProgress(t *testing.T) {
	res := &fakeResolver{dates: map[string]string{}}
	f, store := newTestFetcher(t, res)

	// Precargar un hit para verificar que el progreso lo incluye
	created, _ := time.Parse("2006-01-02", "2015-01-01")
	store.Put("cached_user", domain.AccountRecord{
		Username:     "cached_user",
		Status:       domain.StatusActive,
		CreationDate: &created,
		Source:       domain.SourceAuthoritative,
	})

	var seen []int
	f.FetchBatch(context.Background(), []string{"cached_user", "a", "b", "c"}, func(completed, _ int) {
		seen = append(seen, completed)
	})

	if len(seen) == 0 {
		t.Fatal("expected progress callbacks")
	}
	// Monótono creciente, terminando en el total
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Errorf("progress not monotonic: %v", seen)
			break
		}
	}
	if seen[len(seen)-1] != 4 {
		t.Errorf("expected final progress 4, got %d", seen[len(seen)-1])
	}
	if seen[0] != 1 {
		t.Errorf("expected first callback to report the cache hit, got %d", seen[0])
	}
}

func TestFetchBatch_ReportsCacheHitsBeforeDispatch(t *testing.T) {
	res := &fakeResolver{dates: map[string]string{}}
	f, store := newTestFetcher(t, res)

	created, _ := time.Parse("2006-01-02", "2015-01-01")
	for _, u := range []string{"cached_a", "cached_b"} {
		store.Put(u, domain.AccountRecord{
			Username:     u,
			Status:       domain.StatusActive,
			CreationDate: &created,
			Source:       domain.SourceAuthoritative,
		})
	}

	type snapshot struct{ completed, hits int }
	var seen []snapshot
	f.FetchBatch(context.Background(), []string{"cached_a", "cached_b", "miss"}, func(completed, hits int) {
		seen = append(seen, snapshot{completed, hits})
	})

	if len(seen) == 0 {
		t.Fatal("expected progress callbacks")
	}
	// El primer callback lleva el conteo de hits completo, antes de que
	// ningún worker termine
	if seen[0].completed != 2 || seen[0].hits != 2 {
		t.Errorf("expected first callback (2 completed, 2 hits), got (%d, %d)", seen[0].completed, seen[0].hits)
	}
	for i, s := range seen {
		if s.hits != 2 {
			t.Errorf("callback %d: expected stable hit count 2, got %d", i, s.hits)
		}
	}

	t.Log("✅ Hits de cache reportados antes de despachar workers")
}

func TestFetchBatch_CanceledContextDoesNotCache(t *testing.T) {
	res := &fakeResolver{dates: map[string]string{"alice": "2015-01-01"}}
	f, store := newTestFetcher(t, res)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := f.FetchBatch(ctx, []string{"alice"}, nil)

	// El batch igual produce un record por username, pero degradado
	if len(result.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(result.Records))
	}
	if result.Records[0].Source != domain.SourceUnresolved {
		t.Errorf("expected unresolved record under canceled context, got %s", result.Records[0].Source)
	}

	// Lo degradado nunca toca el cache: un retry con contexto sano debe
	// volver a la red y persistir el resultado real
	if _, ok := store.Lookup("alice"); ok {
		t.Fatal("expected no cache entry for a canceled resolution")
	}

	retry := f.FetchBatch(context.Background(), []string{"alice"}, nil)
	if retry.CacheHits != 0 {
		t.Errorf("expected retry to miss the cache, got %d hits", retry.CacheHits)
	}
	rec, ok := store.Lookup("alice")
	if !ok || rec.Source != domain.SourceAuthoritative {
		t.Errorf("expected authoritative record cached after retry, got %+v (ok=%v)", rec, ok)
	}

	t.Log("✅ Cancelación no envenena el cache")
}

func TestFetchBatch_WorkerPanicDoesNotAbortBatch(t *testing.T) {
	res := &fakeResolver{
		dates: map[string]string{"alice": "2015-01-01"},
		panic: map[string]bool{"broken": true},
	}
	f, _ := newTestFetcher(t, res)

	result := f.FetchBatch(context.Background(), []string{"alice", "broken"}, nil)

	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records despite the panic, got %d", len(result.Records))
	}

	var placeholder *domain.AccountRecord
	for i := range result.Records {
		if result.Records[i].Username == "broken" {
			placeholder = &result.Records[i]
		}
	}
	if placeholder == nil {
		t.Fatal("expected a placeholder record for the panicked username")
	}
	if placeholder.Status != domain.StatusActive || placeholder.Source != domain.SourceUnresolved {
		t.Errorf("expected active/unresolved placeholder, got %s/%s", placeholder.Status, placeholder.Source)
	}
}

func TestFetchBatch_PersistsToCache(t *testing.T) {
	res := &fakeResolver{dates: map[string]string{"alice": "2015-01-01"}}
	f, store := newTestFetcher(t, res)

	f.FetchBatch(context.Background(), []string{"alice"}, nil)

	rec, ok := store.Lookup("alice")
	if !ok {
		t.Fatal("expected resolved record persisted to cache")
	}
	if rec.CreationDate == nil || rec.CreationDate.Format("2006-01-02") != "2015-01-01" {
		t.Errorf("expected cached creation date 2015-01-01, got %v", rec.CreationDate)
	}
}

func TestFetchBatch_Empty(t *testing.T) {
	res := &fakeResolver{}
	f, _ := newTestFetcher(t, res)

	result := f.FetchBatch(context.Background(), nil, func(int, int) {
		t.Error("expected no progress callbacks for empty batch")
	})

	if len(result.Records) != 0 || result.CacheHits != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
