package ingest

import (
	"fmt"
	"os"
	"strings"
)

// WriteLines exporta líneas de texto a un archivo, una por línea
func WriteLines(path string, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}
