// Package main is the entry point for the document ingestion CLI.
package main

import (
	"github.com/kart-io/docqa/internal/docqa/ingest"
)

func main() {
	ingest.NewApp().Run()
}
