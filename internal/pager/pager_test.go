package pager

import (
	"fmt"
	"testing"
)

func TestFilter(t *testing.T) {
	skipSet := map[string]struct{}{
		"[deleted]":     {},
		"automoderator": {},
		"annoying_user": {},
	}

	tests := []struct {
		name      string
		usernames []string
		suffix    string
		want      []string
	}{
		{
			"skip-list exacto case-insensitive",
			[]string{"alice", "AutoModerator", "[deleted]", "bob"},
			"",
			[]string{"alice", "bob"},
		},
		{
			"sufijo bot case-insensitive",
			[]string{"alice", "helperbot", "MegaBOT", "botanist"},
			BotSuffix,
			[]string{"alice", "botanist"},
		},
		{
			"sin sufijo no filtra bots",
			[]string{"helperbot", "alice"},
			"",
			[]string{"helperbot", "alice"},
		},
		{
			"ambos filtros combinados",
			[]string{"Annoying_User", "alice", "spambot"},
			BotSuffix,
			[]string{"alice"},
		},
		{
			"lista vacía",
			nil,
			BotSuffix,
			[]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tt.usernames, skipSet, tt.suffix)
			if len(got) != len(tt.want) {
				t.Fatalf("Filter() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Filter()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPages(t *testing.T) {
	usernames := make([]string, 2500)
	for i := range usernames {
		usernames[i] = fmt.Sprintf("user_%04d", i)
	}

	pages := Pages(usernames, 1000)

	if len(pages) != 3 {
		t.Fatalf("expected 3 pages for 2500 users, got %d", len(pages))
	}
	if len(pages[0]) != 1000 || len(pages[1]) != 1000 || len(pages[2]) != 500 {
		t.Errorf("expected page sizes [1000 1000 500], got [%d %d %d]",
			len(pages[0]), len(pages[1]), len(pages[2]))
	}

	// Contiguas y completas: la concatenación reconstruye la entrada
	i := 0
	for _, page := range pages {
		for _, u := range page {
			if u != usernames[i] {
				t.Fatalf("position %d: expected %s, got %s", i, usernames[i], u)
			}
			i++
		}
	}

	t.Log("✅ 2500 usuarios → páginas de 1000, 1000 y 500")
}

func TestPages_EdgeCases(t *testing.T) {
	if pages := Pages(nil, 1000); len(pages) != 0 {
		t.Errorf("expected no pages for empty input, got %d", len(pages))
	}

	if pages := Pages([]string{"a"}, 1000); len(pages) != 1 || len(pages[0]) != 1 {
		t.Errorf("expected a single one-element page, got %v", pages)
	}

	// pageSize inválido cae al default
	usernames := make([]string, DefaultPageSize+1)
	for i := range usernames {
		usernames[i] = fmt.Sprintf("u%d", i)
	}
	if pages := Pages(usernames, 0); len(pages) != 2 {
		t.Errorf("expected default page size to apply, got %d pages", len(pages))
	}
}
