package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/elsanchez/author-tools/internal/domain"
	"github.com/elsanchez/author-tools/internal/redditapi"
)

// Autores que nunca cuentan como usuarios reales en los dumps
var builtinSkips = map[string]struct{}{
	"[deleted]":     {},
	"automoderator": {},
}

// ExtractAuthors lee un archivo JSON-lines y retorna el conjunto de
// authors. Líneas vacías o no parseables se saltan; [deleted] y
// automoderator se excluyen siempre.
func ExtractAuthors(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jsonl file: %w", err)
	}
	defer f.Close()

	authors := make(map[string]struct{})

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var obj struct {
			Author string `json:"author"`
		}
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		if obj.Author == "" {
			continue
		}
		if _, skip := builtinSkips[strings.ToLower(obj.Author)]; skip {
			continue
		}

		authors[obj.Author] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan jsonl file: %w", err)
	}

	return authors, nil
}

// UniqueAuthors retorna la unión ordenada de authors de varios archivos
// JSONL
func UniqueAuthors(paths ...string) ([]string, error) {
	union := make(map[string]struct{})
	for _, path := range paths {
		authors, err := ExtractAuthors(path)
		if err != nil {
			return nil, err
		}
		for a := range authors {
			union[a] = struct{}{}
		}
	}

	combined := make([]string, 0, len(union))
	for a := range union {
		combined = append(combined, a)
	}
	sort.Strings(combined)

	return combined, nil
}

// StreamItems lee un dump JSONL y entrega cada registro con author y
// timestamp como ActivityItem. Registros sin author real o sin timestamp
// normalizable se saltan. Un registro con campo title se clasifica como
// post; el resto como comment.
func StreamItems(path string, fn func(domain.ActivityItem) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open jsonl file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}

		author, _ := obj["author"].(string)
		if author == "" {
			continue
		}
		if _, skip := builtinSkips[strings.ToLower(author)]; skip {
			continue
		}

		created, ok := redditapi.ParseInstant(obj["created_utc"])
		if !ok {
			continue
		}

		item := domain.ActivityItem{
			Author:    author,
			CreatedAt: created,
			Kind:      domain.ItemComment,
		}
		if sub, _ := obj["subreddit"].(string); sub != "" {
			item.Subreddit = sub
		}
		if _, isPost := obj["title"]; isPost {
			item.Kind = domain.ItemPost
		}

		if err := fn(item); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan jsonl file: %w", err)
	}

	return nil
}
