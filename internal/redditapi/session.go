package redditapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/chrome"
	_ "github.com/browserutils/kooky/browser/chromium"
	_ "github.com/browserutils/kooky/browser/edge"
	_ "github.com/browserutils/kooky/browser/firefox"
	_ "github.com/browserutils/kooky/browser/opera"
)

const (
	// UserAgent identifica la herramienta ante los endpoints remotos
	UserAgent = "AuthorTools/0.1"

	// RequestTimeout es el timeout fijo por petición
	RequestTimeout = 6 * time.Second
)

// Session encapsula el http.Client compartido por ambos clientes upstream.
// Todas las peticiones llevan el mismo User-Agent y timeout fijo.
type Session struct {
	client    *http.Client
	userAgent string
}

// NewSession crea una sesión con el timeout por defecto
func NewSession() *Session {
	return &Session{
		client: &http.Client{
			Timeout: RequestTimeout,
		},
		userAgent: UserAgent,
	}
}

// LoadBrowserCookies busca cookies de sesión de reddit.com en los browsers
// instalados y las instala en la sesión. Las peticiones autenticadas al
// endpoint de perfil sufren mucho menos rate-limiting. Retorna la cantidad
// de cookies instaladas; no encontrar ninguna no es un error fatal para el
// caller, que puede seguir con peticiones anónimas.
func (s *Session) LoadBrowserCookies(ctx context.Context) (int, error) {
	cookies, err := kooky.ReadCookies(ctx, kooky.DomainHasSuffix("reddit.com"))
	if err != nil {
		return 0, fmt.Errorf("read browser cookies: %w", err)
	}

	now := time.Now()
	httpCookies := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		// Saltar cookies ya expiradas
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		httpCookies = append(httpCookies, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}

	if len(httpCookies) == 0 {
		return 0, nil
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return 0, fmt.Errorf("create cookie jar: %w", err)
	}

	target, _ := url.Parse("https://www.reddit.com/")
	jar.SetCookies(target, httpCookies)
	s.client.Jar = jar

	return len(httpCookies), nil
}

// get ejecuta un GET con el User-Agent de la sesión
func (s *Session) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	return s.client.Do(req)
}
