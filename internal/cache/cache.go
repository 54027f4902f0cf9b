package cache

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/elsanchez/author-tools/internal/domain"
)

const dateLayout = "2006-01-02"

// Entry es la forma persistida de un AccountRecord. La clave del mapa es
// el username en minúsculas; la entrada guarda el casing que disparó la
// primera resolución exitosa.
type Entry struct {
	Username     string               `json:"username"`
	Status       domain.AccountStatus `json:"status"`
	CreationDate string               `json:"creation_date,omitempty"`
	Source       domain.DateSource    `json:"source"`
	LastActivity string               `json:"last_activity,omitempty"`
}

// Record reconstruye el AccountRecord de dominio desde la entrada persistida
func (e Entry) Record() domain.AccountRecord {
	rec := domain.AccountRecord{
		Username: e.Username,
		Status:   e.Status,
		Source:   e.Source,
	}
	if t, err := time.Parse(dateLayout, e.CreationDate); err == nil {
		rec.CreationDate = &t
	}
	if t, err := time.Parse(dateLayout, e.LastActivity); err == nil {
		rec.LastActivity = &t
	}
	return rec
}

func entryFromRecord(rec domain.AccountRecord) Entry {
	e := Entry{
		Username: rec.Username,
		Status:   rec.Status,
		Source:   rec.Source,
	}
	if rec.CreationDate != nil {
		e.CreationDate = rec.CreationDate.Format(dateLayout)
	}
	if rec.LastActivity != nil {
		e.LastActivity = rec.LastActivity.Format(dateLayout)
	}
	return e
}

// Store es el cache persistente de cuentas resueltas: un único objeto JSON
// en disco que mapea lowercase(username) → Entry. Nunca desaloja entradas;
// crece durante toda la vida de la instalación.
//
// Un solo mutex guarda el ciclo read-modify-write completo del mapa. El
// flush reescribe el archivo entero de forma atómica (temp + rename), así
// que un crash puede perder las últimas entradas no escritas pero nunca
// corrompe lo ya persistido.
type Store struct {
	path string

	mu      sync.Mutex
	entries map[string]Entry
}

// Open carga el cache desde disco. Archivo ausente o corrupto produce un
// cache vacío: la corrupción nunca bloquea el arranque.
func Open(path string) *Store {
	s := &Store{
		path:    path,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		return s
	}
	s.entries = entries

	return s
}

// Lookup busca un username (case-insensitive)
func (s *Store) Lookup(username string) (domain.AccountRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[lowerKey(username)]
	if !ok {
		return domain.AccountRecord{}, false
	}
	return e.Record(), true
}

// Put guarda un record resuelto y persiste el mapa completo a disco. Si ya
// existe una entrada para la clave gana la primera escritura: dos
// resoluciones concurrentes del mismo usuario son equivalentes salvo
// timing, así que cualquiera puede persistir. Errores de escritura se
// absorben: la persistencia es best-effort, el cache en memoria manda.
func (s *Store) Put(username string, rec domain.AccountRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lowerKey(username)
	if _, exists := s.entries[key]; exists {
		return
	}
	s.entries[key] = entryFromRecord(rec)
	s.flushLocked()
}

// Partition separa una lista de usernames en hits (records ya resueltos)
// y misses, en una sola pasada sincronizada y preservando el orden de
// entrada de los misses
func (s *Store) Partition(usernames []string) (hits []domain.AccountRecord, misses []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range usernames {
		if e, ok := s.entries[lowerKey(u)]; ok {
			hits = append(hits, e.Record())
		} else {
			misses = append(misses, u)
		}
	}
	return hits, misses
}

// Len retorna la cantidad de entradas en memoria
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// flushLocked serializa el mapa completo. Caller debe tener el lock.
func (s *Store) flushLocked() {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return
	}
	os.Rename(tmp, s.path)
}

func lowerKey(username string) string {
	return strings.ToLower(username)
}
