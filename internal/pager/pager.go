package pager

import "strings"

// DefaultPageSize es el tamaño de página por defecto
const DefaultPageSize = 1000

// BotSuffix es el sufijo de username filtrado cuando SkipBots está activo
const BotSuffix = "bot"

// Filter aplica el skip-list (match exacto case-insensitive) y el filtro
// opcional de sufijo sobre una lista de usernames, preservando el orden.
// Ambos insumos vienen del colaborador de settings; acá solo se aplican.
func Filter(usernames []string, skipSet map[string]struct{}, skipSuffix string) []string {
	filtered := make([]string, 0, len(usernames))
	for _, u := range usernames {
		lower := strings.ToLower(u)
		if skipSuffix != "" && strings.HasSuffix(lower, skipSuffix) {
			continue
		}
		if _, skip := skipSet[lower]; skip {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered
}

// Pages parte una lista en páginas contiguas de pageSize elementos; la
// última página lleva el resto. pageSize <= 0 usa el default. Las páginas
// son vistas computadas, no se persisten.
func Pages(usernames []string, pageSize int) [][]string {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var pages [][]string
	for start := 0; start < len(usernames); start += pageSize {
		end := start + pageSize
		if end > len(usernames) {
			end = len(usernames)
		}
		pages = append(pages, usernames[start:end])
	}
	return pages
}
