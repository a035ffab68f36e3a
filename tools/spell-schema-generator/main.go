package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/quickspell/core/spell"
)

func main() {
	data, err := spell.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	// Run from the schema package directory via go:generate.
	out := "spell.embedded.schema.json"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}
	out = filepath.Clean(out)

	if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated spell schema at %s", out)
}
