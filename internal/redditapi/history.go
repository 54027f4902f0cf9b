package redditapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultHistoryBaseURL es el host del servicio de búsqueda de contenido
const DefaultHistoryBaseURL = "https://arctic-shift.photon-reddit.com"

// Campos candidatos de timestamp en los items, probados en orden
var timestampFields = []string{"created_utc", "created", "timestamp"}

// HistoryClient estima fechas de actividad buscando el contenido más
// antiguo o más reciente de un usuario en los endpoints de posts y
// comments. Endpoints que fallan, expiran o retornan payloads vacíos o
// malformados se saltan en silencio: no aportan fecha candidata.
type HistoryClient struct {
	session *Session
	baseURL string
}

// NewHistoryClient crea un cliente de historial sobre una sesión compartida
func NewHistoryClient(session *Session) *HistoryClient {
	return &HistoryClient{
		session: session,
		baseURL: DefaultHistoryBaseURL,
	}
}

// NewHistoryClientWithBase permite redirigir el endpoint (tests, mirrors)
func NewHistoryClientWithBase(session *Session, baseURL string) *HistoryClient {
	return &HistoryClient{session: session, baseURL: baseURL}
}

// FetchEarliest retorna la fecha del contenido más antiguo conocido del
// usuario, el mínimo entre posts y comments. ok=false si ningún endpoint
// produjo fecha.
func (c *HistoryClient) FetchEarliest(ctx context.Context, username string) (time.Time, bool) {
	return c.fetchBoundary(ctx, username, "asc")
}

// FetchLatest retorna la fecha del contenido más reciente conocido
func (c *HistoryClient) FetchLatest(ctx context.Context, username string) (time.Time, bool) {
	return c.fetchBoundary(ctx, username, "desc")
}

func (c *HistoryClient) fetchBoundary(ctx context.Context, username, sort string) (time.Time, bool) {
	var best time.Time
	found := false

	for _, kind := range []string{"posts", "comments"} {
		endpoint := fmt.Sprintf("%s/api/%s/search?author=%s&sort=%s",
			c.baseURL, kind, url.QueryEscape(username), sort)

		date, ok := c.fetchFirstItemDate(ctx, endpoint)
		if !ok {
			continue
		}

		if !found {
			best = date
			found = true
			continue
		}
		if sort == "asc" && date.Before(best) {
			best = date
		}
		if sort == "desc" && date.After(best) {
			best = date
		}
	}

	return best, found
}

// fetchFirstItemDate pide un endpoint de búsqueda y normaliza el timestamp
// del primer item retornado
func (c *HistoryClient) fetchFirstItemDate(ctx context.Context, endpoint string) (time.Time, bool) {
	resp, err := c.session.get(ctx, endpoint)
	if err != nil {
		return time.Time{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= 300 {
		return time.Time{}, false
	}

	items, ok := decodeItems(resp)
	if !ok || len(items) == 0 {
		return time.Time{}, false
	}

	for _, field := range timestampFields {
		value, present := items[0][field]
		if !present || value == nil {
			continue
		}
		if date, ok := ParseTimestamp(value); ok {
			return date, true
		}
	}

	return time.Time{}, false
}

// decodeItems acepta las dos formas de payload del servicio: un objeto
// {"data": [...]} o directamente una lista de items
func decodeItems(resp *http.Response) ([]map[string]any, bool) {
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, false
	}

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, true
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, true
	}

	return nil, false
}
