package redditapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchAbout_ActiveAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/alice/about.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != UserAgent {
			t.Errorf("expected User-Agent %q, got %q", UserAgent, ua)
		}
		w.Write([]byte(`{"data": {"created_utc": 1420070400.0}}`))
	}))
	defer server.Close()

	client := NewProfileClientWithBase(NewSession(), server.URL)
	about, status := client.FetchAbout(context.Background(), "alice")

	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if about == nil {
		t.Fatal("expected payload")
	}
	if about.IsSuspended {
		t.Error("expected account not suspended")
	}
	if about.CreatedUTC == nil || *about.CreatedUTC != 1420070400.0 {
		t.Errorf("expected created_utc 1420070400, got %v", about.CreatedUTC)
	}

	t.Log("✅ Perfil activo parseado correctamente")
}

func TestFetchAbout_SuspendedAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"is_suspended": true}}`))
	}))
	defer server.Close()

	client := NewProfileClientWithBase(NewSession(), server.URL)
	about, status := client.FetchAbout(context.Background(), "banned_user")

	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if !about.IsSuspended {
		t.Error("expected is_suspended true")
	}
	if about.CreatedUTC != nil {
		t.Error("expected no created_utc for suspended account")
	}
}

func TestFetchAbout_DeletedAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewProfileClientWithBase(NewSession(), server.URL)
	about, status := client.FetchAbout(context.Background(), "ghost")

	if status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", status)
	}
	if about != nil {
		t.Error("expected nil payload on 404")
	}
}

func TestFetchAbout_TransientErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			"error 500",
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			http.StatusInternalServerError,
		},
		{
			"rate limit 429",
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			http.StatusTooManyRequests,
		},
		{
			"payload malformado",
			func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{truncated`))
			},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewProfileClientWithBase(NewSession(), server.URL)
			about, status := client.FetchAbout(context.Background(), "someone")

			if about != nil {
				t.Error("expected nil payload")
			}
			if status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, status)
			}
		})
	}
}

func TestFetchAbout_ServerDown(t *testing.T) {
	// Server cerrado: fallo de transporte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewProfileClientWithBase(NewSession(), server.URL)
	about, status := client.FetchAbout(context.Background(), "someone")

	if about != nil || status != 0 {
		t.Errorf("expected (nil, 0), got (%v, %d)", about, status)
	}
}
