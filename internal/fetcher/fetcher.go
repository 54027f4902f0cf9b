package fetcher

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/elsanchez/author-tools/internal/cache"
	"github.com/elsanchez/author-tools/internal/domain"
)

// DefaultMaxWorkers es el ancho máximo del pool por batch
const DefaultMaxWorkers = 12

// AccountResolver resuelve un username a su record. Lo implementa
// resolver.Resolver; los tests inyectan fakes.
type AccountResolver interface {
	Resolve(ctx context.Context, username string) domain.AccountRecord
}

// ProgressFunc recibe el conteo acumulado de items completados (hits de
// cache incluidos) y el total de hits de cache del batch. Los hits se
// conocen en la pasada de partición, así que ya el primer callback trae el
// conteo definitivo. Se invoca siempre desde la goroutine que corre
// FetchBatch, nunca desde un worker: el consumidor no necesita sincronizar.
type ProgressFunc func(completed, cacheHits int)

// Result es el resultado de un batch
type Result struct {
	Records   []domain.AccountRecord
	CacheHits int
}

// BatchFetcher resuelve una página de usernames contra el cache y, para
// los misses, contra la red con un pool acotado de workers. El pool vive
// solo durante la llamada a FetchBatch.
type BatchFetcher struct {
	cache      *cache.Store
	resolver   AccountResolver
	maxWorkers int
}

// New crea un batch fetcher. maxWorkers <= 0 usa el default.
func New(store *cache.Store, res AccountResolver, maxWorkers int) *BatchFetcher {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &BatchFetcher{
		cache:      store,
		resolver:   res,
		maxWorkers: maxWorkers,
	}
}

// FetchBatch resuelve los usernames de una página. Los hits de cache se
// recogen en una sola pasada sincronizada antes de despachar nada, así el
// conteo de hits está disponible de inmediato. El orden de finalización de
// los workers no importa: la salida siempre se ordena por (año de creación
// asc, no-resueltos al final, username case-insensitive).
func (f *BatchFetcher) FetchBatch(ctx context.Context, usernames []string, progress ProgressFunc) Result {
	hits, misses := f.cache.Partition(usernames)

	records := make([]domain.AccountRecord, 0, len(usernames))
	records = append(records, hits...)

	// El primer callback sale antes de despachar workers: el consumidor ve
	// el conteo de hits de inmediato, no al cerrar el batch
	completed := len(hits)
	if progress != nil && len(usernames) > 0 {
		progress(completed, len(hits))
	}

	if len(misses) > 0 {
		workers := f.maxWorkers
		if workers > len(misses) {
			workers = len(misses)
		}

		sem := make(chan struct{}, workers)
		results := make(chan domain.AccountRecord)
		var wg sync.WaitGroup

		for _, u := range misses {
			wg.Add(1)
			go func(username string) {
				defer wg.Done()
				sem <- struct{}{} // Obtener slot de worker
				defer func() { <-sem }()
				results <- f.resolveOne(ctx, username)
			}(u)
		}

		go func() {
			wg.Wait()
			close(results)
		}()

		// Drenar en esta goroutine: el callback de progreso queda
		// serializado en un solo hilo de notificación
		for rec := range results {
			records = append(records, rec)
			completed++
			if progress != nil {
				progress(completed, len(hits))
			}
		}
	}

	sortRecords(records)

	return Result{Records: records, CacheHits: len(hits)}
}

// resolveOne resuelve un miss y lo persiste en el cache. El resolver no
// debería entrar en pánico por contrato, pero un worker caído no puede
// abortar el batch: se sustituye un placeholder sin resolver.
func (f *BatchFetcher) resolveOne(ctx context.Context, username string) (rec domain.AccountRecord) {
	defer func() {
		if r := recover(); r != nil {
			rec = domain.AccountRecord{
				Username: username,
				Status:   domain.StatusActive,
				Source:   domain.SourceUnresolved,
			}
		}
	}()

	// Con el batch cancelado, resolver solo produciría degradados
	if ctx.Err() != nil {
		return domain.AccountRecord{
			Username: username,
			Status:   domain.StatusActive,
			Source:   domain.SourceUnresolved,
		}
	}

	rec = f.resolver.Resolve(ctx, username)

	// Una cancelación a mitad de vuelo degrada el record a unresolved;
	// persistirlo envenenaría un cache que nunca sobreescribe
	if ctx.Err() == nil {
		f.cache.Put(username, rec)
	}
	return rec
}

// sortRecords ordena por año de creación ascendente (sin resolver al
// final) con username case-insensitive como desempate
func sortRecords(records []domain.AccountRecord) {
	sort.Slice(records, func(i, j int) bool {
		yi, yj := sortYear(&records[i]), sortYear(&records[j])
		if yi != yj {
			return yi < yj
		}
		return strings.ToLower(records[i].Username) < strings.ToLower(records[j].Username)
	})
}

func sortYear(r *domain.AccountRecord) int {
	if r.CreationDate == nil {
		return 9999
	}
	return r.CreationDate.Year()
}
