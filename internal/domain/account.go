package domain

import "time"

// AccountStatus representa los estados posibles de una cuenta de Reddit
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusDeleted   AccountStatus = "deleted"
)

// DateSource indica la procedencia de la fecha de creación
type DateSource string

const (
	// SourceAuthoritative: la fecha vino del endpoint de perfil
	SourceAuthoritative DateSource = "authoritative"
	// SourceEstimated: la fecha se infirió del contenido más antiguo
	SourceEstimated DateSource = "estimated"
	// SourceUnresolved: ninguna fuente produjo fecha
	SourceUnresolved DateSource = "unresolved"
)

// AccountRecord es el resultado resuelto para un username.
// CreationDate presente implica Source authoritative o estimated;
// CreationDate nil implica Source unresolved.
type AccountRecord struct {
	Username     string
	Status       AccountStatus
	CreationDate *time.Time
	Source       DateSource
	LastActivity *time.Time
}

// CreationYear retorna el año de creación, o 0 si no está resuelto
func (r *AccountRecord) CreationYear() int {
	if r.CreationDate == nil {
		return 0
	}
	return r.CreationDate.Year()
}

// Resolved retorna true si se encontró fecha de creación
func (r *AccountRecord) Resolved() bool {
	return r.CreationDate != nil
}
