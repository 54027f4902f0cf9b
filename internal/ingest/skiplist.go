package ingest

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Contenido inicial del skip-list en la primera corrida
const defaultSkipList = "[deleted]\nautomoderator\n"

// LoadSkipList carga el skip-list desde un archivo de texto (un username
// excluido por línea, comparación case-insensitive). Si el archivo no
// existe se crea con los defaults.
func LoadSkipList(path string) (map[string]struct{}, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(defaultSkipList), 0644); err != nil {
			return nil, fmt.Errorf("seed skip list: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skip list: %w", err)
	}

	set := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			set[strings.ToLower(line)] = struct{}{}
		}
	}

	return set, nil
}

// SaveSkipList persiste el skip-list ordenado, un username por línea
func SaveSkipList(path string, set map[string]struct{}) error {
	names := make([]string, 0, len(set))
	for u := range set {
		names = append(names, u)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, u := range names {
		b.WriteString(u)
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write skip list: %w", err)
	}
	return nil
}
