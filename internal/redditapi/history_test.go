package redditapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// localDate es la fecha calendario local de un epoch, igual que la produce
// ParseTimestamp
func localDate(sec int64) string {
	return DateOnly(time.Unix(sec, 0)).Format("2006-01-02")
}

// historyServer simula el servicio de búsqueda con respuestas fijas por
// (kind, sort)
func historyServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path + "?" + r.URL.Query().Get("sort")
		body, ok := responses[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
}

func TestFetchEarliest_MinAcrossEndpoints(t *testing.T) {
	server := historyServer(t, map[string]string{
		// El comment es más antiguo que el post: debe ganar
		"/api/posts/search?asc":    `{"data": [{"created_utc": 1434371445}]}`,
		"/api/comments/search?asc": `{"data": [{"created_utc": 1420070400}]}`,
	})
	defer server.Close()

	client := NewHistoryClientWithBase(NewSession(), server.URL)
	date, ok := client.FetchEarliest(context.Background(), "alice")

	if !ok {
		t.Fatal("expected a date")
	}
	if got, want := date.Format("2006-01-02"), localDate(1420070400); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	t.Log("✅ Mínimo entre posts y comments")
}

func TestFetchLatest_MaxAcrossEndpoints(t *testing.T) {
	server := historyServer(t, map[string]string{
		"/api/posts/search?desc":    `{"data": [{"created_utc": 1434371445}]}`,
		"/api/comments/search?desc": `{"data": [{"created_utc": 1420070400}]}`,
	})
	defer server.Close()

	client := NewHistoryClientWithBase(NewSession(), server.URL)
	date, ok := client.FetchLatest(context.Background(), "alice")

	if !ok {
		t.Fatal("expected a date")
	}
	if got, want := date.Format("2006-01-02"), localDate(1434371445); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestFetchEarliest_OneEndpointDown(t *testing.T) {
	// Solo comments responde: el resultado sale de ahí
	server := historyServer(t, map[string]string{
		"/api/comments/search?asc": `{"data": [{"created_utc": 1420070400}]}`,
	})
	defer server.Close()

	client := NewHistoryClientWithBase(NewSession(), server.URL)
	date, ok := client.FetchEarliest(context.Background(), "alice")

	if !ok {
		t.Fatal("expected a date from the surviving endpoint")
	}
	if got, want := date.Format("2006-01-02"), localDate(1420070400); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestFetchEarliest_NoResults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"lista vacía", `{"data": []}`},
		{"payload malformado", `{truncated`},
		{"item sin timestamp", `{"data": [{"author": "alice"}]}`},
		{"timestamp malformado", `{"data": [{"created_utc": "garbage"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := historyServer(t, map[string]string{
				"/api/posts/search?asc":    tt.body,
				"/api/comments/search?asc": tt.body,
			})
			defer server.Close()

			client := NewHistoryClientWithBase(NewSession(), server.URL)
			if _, ok := client.FetchEarliest(context.Background(), "alice"); ok {
				t.Error("expected no date")
			}
		})
	}
}

func TestFetchEarliest_AlternateFields(t *testing.T) {
	// created_utc ausente: se prueban created y timestamp en orden
	tests := []struct {
		field string
	}{
		{"created_utc"},
		{"created"},
		{"timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			body := fmt.Sprintf(`{"data": [{"%s": 1420070400}]}`, tt.field)
			server := historyServer(t, map[string]string{
				"/api/posts/search?asc":    body,
				"/api/comments/search?asc": body,
			})
			defer server.Close()

			client := NewHistoryClientWithBase(NewSession(), server.URL)
			if _, ok := client.FetchEarliest(context.Background(), "alice"); !ok {
				t.Errorf("expected %s to be accepted as timestamp field", tt.field)
			}
		})
	}
}

func TestFetchEarliest_BareList(t *testing.T) {
	// El servicio a veces retorna la lista pelada, sin {"data": ...}
	server := historyServer(t, map[string]string{
		"/api/posts/search?asc":    `[{"created_utc": 1420070400}]`,
		"/api/comments/search?asc": `[]`,
	})
	defer server.Close()

	client := NewHistoryClientWithBase(NewSession(), server.URL)
	date, ok := client.FetchEarliest(context.Background(), "alice")

	if !ok {
		t.Fatal("expected bare list payload to parse")
	}
	if got, want := date.Format("2006-01-02"), localDate(1420070400); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
