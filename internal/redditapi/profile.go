package redditapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultProfileBaseURL es el host del endpoint de perfil
const DefaultProfileBaseURL = "https://www.reddit.com"

// AboutData expone los campos relevantes del payload de about.json
type AboutData struct {
	IsSuspended bool     `json:"is_suspended"`
	CreatedUTC  *float64 `json:"created_utc"`
}

// ProfileClient consulta el endpoint autoritativo de perfil por username.
//
// Contrato de FetchAbout:
//   - HTTP 200: payload parseado y status 200
//   - HTTP 404: (nil, 404), la señal canónica de cuenta borrada
//   - cualquier otro status, timeout, error de red o payload malformado:
//     (nil, 0), que el resolver trata como "desconocido, asumir activa".
//     Ojo: esto mezcla rate-limiting/outages con "confirmada activa"; se
//     conserva por compatibilidad con la herramienta original.
type ProfileClient struct {
	session *Session
	baseURL string
}

// NewProfileClient crea un cliente de perfil sobre una sesión compartida
func NewProfileClient(session *Session) *ProfileClient {
	return &ProfileClient{
		session: session,
		baseURL: DefaultProfileBaseURL,
	}
}

// NewProfileClientWithBase permite redirigir el endpoint (tests, mirrors)
func NewProfileClientWithBase(session *Session, baseURL string) *ProfileClient {
	return &ProfileClient{session: session, baseURL: baseURL}
}

// FetchAbout consulta about.json para un username. El segundo retorno es el
// status HTTP observado, o 0 si la petición no llegó a completarse.
func (c *ProfileClient) FetchAbout(ctx context.Context, username string) (*AboutData, int) {
	endpoint := fmt.Sprintf("%s/user/%s/about.json", c.baseURL, url.PathEscape(username))

	resp, err := c.session.get(ctx, endpoint)
	if err != nil {
		return nil, 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode
	}

	var payload struct {
		Data AboutData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// Payload malformado se trata igual que un fallo transitorio
		return nil, 0
	}

	return &payload.Data, http.StatusOK
}
