//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups targets that run the medsft stages end to end.
type Pipeline mg.Namespace

// envOr returns the environment value for key, or def when it is unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func rawPath() string { return envOr("MEDSFT_RAW", filepath.Join("data", "raw", "pubmed.json")) }
func sftPath() string { return envOr("MEDSFT_SFT", filepath.Join("data", "sft", "pubmed_sft.json")) }

// Acquire downloads PubMed records for START..END (env MEDSFT_START,
// MEDSFT_END, MEDSFT_NUM) into data/raw.
func (Pipeline) Acquire() error {
	ensureBuilt()
	return sh.RunV(filepath.Join(binDir, binName), "acquire",
		"--output-json", rawPath(),
		"--start-date", envOr("MEDSFT_START", "2024/01/01"),
		"--end-date", envOr("MEDSFT_END", "2024/12/31"),
		"--num-articles", envOr("MEDSFT_NUM", "1000"),
	)
}

// SFT converts data/raw output into training pairs under data/sft.
func (Pipeline) SFT() error {
	ensureBuilt()
	return sh.RunV(filepath.Join(binDir, binName), "sft",
		"--input", rawPath(),
		"--output", sftPath(),
	)
}

// Ingest loads the latest acquisition output into the corpus index.
func (Pipeline) Ingest() error {
	ensureBuilt()
	return sh.RunV(filepath.Join(binDir, binName), "corpus", "ingest", rawPath())
}

// All runs acquire, sft, and ingest in order.
func (p Pipeline) All() error {
	mg.SerialDeps(p.Acquire, p.SFT, p.Ingest)
	fmt.Println("Pipeline complete.")
	return nil
}
