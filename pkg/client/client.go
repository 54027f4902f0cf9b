package client

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// GetDefaultSocketPath retorna el path del socket usando XDG_RUNTIME_DIR
// Desktop Linux con systemd siempre tiene esta variable
func GetDefaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		// Fallback: construir con UID (aunque no debería ocurrir en desktop Linux moderno)
		uid := os.Getuid()
		runtimeDir = fmt.Sprintf("/run/user/%d", uid)
	}

	return filepath.Join(runtimeDir, "author-tools.sock")
}

// Client representa un cliente del daemon
type Client struct {
	socketPath string
}

// NewClient crea un cliente con socket path personalizado
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// NewDefaultClient crea un cliente con el socket path por defecto
func NewDefaultClient() *Client {
	return &Client{socketPath: GetDefaultSocketPath()}
}

// Request representa una petición al daemon
type Request struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Response representa una respuesta del daemon
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Send envía una petición al daemon y retorna la respuesta
func (c *Client) Send(req *Request) (*Response, error) {
	// Conectar al socket
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w (is author-toolsd running?)", err)
	}
	defer conn.Close()

	// Enviar request
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	// Leer response
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &resp, nil
}

// call arma la petición, la envía y valida el flag de éxito
func (c *Client) call(action string, payload any, out any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		raw = data
	}

	resp, err := c.Send(&Request{Action: action, Payload: raw})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s failed: %s", action, resp.Error)
	}

	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// Record es la forma wire de un record resuelto en una página de resultados
type Record struct {
	Username     string `json:"username"`
	Status       string `json:"status"`
	CreationDate string `json:"creation_date,omitempty"`
	Source       string `json:"source"`
	LastActivity string `json:"last_activity,omitempty"`
	Count        int    `json:"count,omitempty"`
}

// JobStatus es el estado y progreso de un job
type JobStatus struct {
	ID           int64      `json:"id"`
	Kind         string     `json:"kind"`
	Status       string     `json:"status"`
	TotalUsers   int        `json:"total_users"`
	Completed    int        `json:"completed"`
	CacheHits    int        `json:"cache_hits"`
	TotalPages   int        `json:"total_pages"`
	ErrorMessage string     `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// DateCount es una entrada de calendario de actividad
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// BucketCount es una entrada de heatmap
type BucketCount struct {
	Bucket int `json:"bucket"`
	Count  int `json:"count"`
}

// StartAnalysis encola un análisis de creación de cuentas y retorna el job ID
func (c *Client) StartAnalysis(inputPath string, pageSize int, skipBots bool) (int64, error) {
	var result struct {
		ID int64 `json:"id"`
	}
	err := c.call("analyze", map[string]interface{}{
		"input_path": inputPath,
		"page_size":  pageSize,
		"skip_bots":  skipBots,
	}, &result)
	return result.ID, err
}

// StartOverlap encola un análisis de usuarios superpuestos
func (c *Client) StartOverlap(inputPaths []string, skipBots bool) (int64, error) {
	var result struct {
		ID int64 `json:"id"`
	}
	err := c.call("overlap", map[string]interface{}{
		"input_paths": inputPaths,
		"skip_bots":   skipBots,
	}, &result)
	return result.ID, err
}

// GetJobStatus consulta el estado de un job
func (c *Client) GetJobStatus(id int64) (*JobStatus, error) {
	var status JobStatus
	if err := c.call("status", map[string]int64{"id": id}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetPageResults recupera los records de una página de un job
func (c *Client) GetPageResults(id int64, page int) ([]Record, error) {
	var result struct {
		Records []Record `json:"records"`
	}
	err := c.call("results", map[string]interface{}{"id": id, "page": page}, &result)
	return result.Records, err
}

// Ingest importa un dump JSONL al store de actividad
func (c *Client) Ingest(inputPath string) (int, error) {
	var result struct {
		Inserted int `json:"inserted"`
	}
	err := c.call("ingest", map[string]string{"input_path": inputPath}, &result)
	return result.Inserted, err
}

// Authors retorna el conteo (y opcionalmente la lista) de authors únicos
func (c *Client) Authors(withList bool) (int, []string, error) {
	var result struct {
		Count   int      `json:"count"`
		Authors []string `json:"authors"`
	}
	err := c.call("authors", map[string]bool{"with_list": withList}, &result)
	return result.Count, result.Authors, err
}

// SubredditCalendar retorna el calendario de actividad de un subreddit
func (c *Client) SubredditCalendar(subreddit string) ([]DateCount, error) {
	var result struct {
		Calendar []DateCount `json:"calendar"`
	}
	err := c.call("calendar", map[string]string{"subreddit": subreddit}, &result)
	return result.Calendar, err
}

// AuthorCalendar retorna el calendario de actividad de un usuario
func (c *Client) AuthorCalendar(author string) ([]DateCount, error) {
	var result struct {
		Calendar []DateCount `json:"calendar"`
	}
	err := c.call("calendar", map[string]string{"author": author}, &result)
	return result.Calendar, err
}

// Heatmap retorna la distribución de actividad por "hour" o "weekday"
func (c *Client) Heatmap(by string) ([]BucketCount, error) {
	var result struct {
		Heatmap []BucketCount `json:"heatmap"`
	}
	err := c.call("heatmap", map[string]string{"by": by}, &result)
	return result.Heatmap, err
}

// Stats retorna estadísticas del daemon
func (c *Client) Stats() (map[string]interface{}, error) {
	var stats map[string]interface{}
	if err := c.call("stats", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Ping verifica que el daemon esté corriendo
func (c *Client) Ping() error {
	return c.call("ping", nil, nil)
}
