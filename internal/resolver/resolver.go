package resolver

import (
	"context"
	"net/http"

	"github.com/elsanchez/author-tools/internal/domain"
	"github.com/elsanchez/author-tools/internal/redditapi"
)

// Resolver orquesta los dos niveles de lookup para un username: el perfil
// autoritativo primero, el historial de contenido como fallback. El endpoint
// de perfil solo expone fecha de creación para cuentas recuperables, pero
// las cuentas borradas/suspendidas son justo las de mayor interés analítico;
// el fallback estima la edad mínima posible buscando contenido que
// sobrevivió a la baja.
type Resolver struct {
	profile *redditapi.ProfileClient
	history *redditapi.HistoryClient
}

// New crea un resolver sobre los dos clientes upstream
func New(profile *redditapi.ProfileClient, history *redditapi.HistoryClient) *Resolver {
	return &Resolver{profile: profile, history: history}
}

// Resolve produce el AccountRecord para un username. Nunca falla: todo
// error upstream degrada a status activa o fecha ausente, jamás a un error
// propagado.
func (r *Resolver) Resolve(ctx context.Context, username string) domain.AccountRecord {
	rec := domain.AccountRecord{
		Username: username,
		Status:   domain.StatusActive,
		Source:   domain.SourceUnresolved,
	}

	// 1. Perfil autoritativo: decide el status
	about, status := r.profile.FetchAbout(ctx, username)
	switch {
	case status == http.StatusOK && about != nil && about.IsSuspended:
		rec.Status = domain.StatusSuspended
	case status == http.StatusOK:
		rec.Status = domain.StatusActive
	case status == http.StatusNotFound:
		rec.Status = domain.StatusDeleted
	default:
		// Transitorio o desconocido: asumir activa (compatibilidad con la
		// herramienta original; ver caveat en ProfileClient)
		rec.Status = domain.StatusActive
	}

	// 2. Fecha de creación: autoritativa si el perfil la trajo
	if status == http.StatusOK && about != nil && about.CreatedUTC != nil {
		if date, ok := redditapi.EpochToUTCDate(*about.CreatedUTC); ok {
			rec.CreationDate = &date
			rec.Source = domain.SourceAuthoritative
		}
	}

	// Fallback: contenido más antiguo conocido. Cubre cuentas borradas,
	// suspendidas y perfiles sin timestamp.
	if rec.CreationDate == nil {
		if date, ok := r.history.FetchEarliest(ctx, username); ok {
			earliest := date
			rec.CreationDate = &earliest
			rec.Source = domain.SourceEstimated
		}
	}

	// 3. Última actividad: siempre via fallback, independiente del status
	if date, ok := r.history.FetchLatest(ctx, username); ok {
		latest := date
		rec.LastActivity = &latest
	}

	return rec
}
