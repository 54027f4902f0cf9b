package ingest

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ReadUsernameList lee un archivo de texto con un username por línea.
// Líneas vacías se saltan; el orden y el casing se preservan.
func ReadUsernameList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open username list: %w", err)
	}
	defer f.Close()

	var usernames []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			usernames = append(usernames, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan username list: %w", err)
	}

	return usernames, nil
}

// Overlap cuenta en cuántos conjuntos aparece cada username y retorna los
// que aparecen en dos o más, ordenados, junto con sus conteos. La
// identidad es el casing tal como viene: los datasets de origen comparten
// casing para el mismo usuario.
func Overlap(sets []map[string]struct{}) ([]string, map[string]int) {
	counts := make(map[string]int)
	for _, set := range sets {
		for u := range set {
			counts[u]++
		}
	}

	var overlapping []string
	for u, c := range counts {
		if c > 1 {
			overlapping = append(overlapping, u)
		}
	}
	sort.Strings(overlapping)

	return overlapping, counts
}

// ToSet convierte una lista de usernames en conjunto
func ToSet(usernames []string) map[string]struct{} {
	set := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		set[u] = struct{}{}
	}
	return set
}
