// Package config defines the JSON-serializable configuration model for the
// ingestion pipeline. It is intentionally small and explicit: a run is fully
// described by an input directory of archives, an output directory for the
// Parquet artifacts, and a handful of tuning knobs.
//
// Example (trimmed):
//
//	{
//	  "job":        "cnpj",
//	  "input_dir":  "data/dados_cnpj",
//	  "output_dir": "data/cnpj_parquet",
//	  "parser":     { "chunk_rows": 100000 },
//	  "runtime":    { "type_workers": 1 },
//	  "mirror":     { "dsn": "" }
//	}
//
// Every directory setting can also come from the environment (12-factor
// style) via Load; a .env file is honored when present.
package config

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"cnpjetl/internal/logging"
)

// DefaultChunkRows is the documented chunk row-count bound: the maximum
// number of rows held in memory per chunk during ingestion.
const DefaultChunkRows = 100_000

// Pipeline describes one full ingestion run.
type Pipeline struct {
	// Job names the run for logs and metrics labeling.
	Job string `json:"job"`

	// InputDir is the flat directory containing the downloaded ZIP archives.
	InputDir string `json:"input_dir"`

	// OutputDir receives one <type>.parquet file per entity type.
	OutputDir string `json:"output_dir"`

	// ScratchDir is the ephemeral extraction workspace. It is recreated empty
	// at the start of a run and removed at the end. Empty selects
	// <output_dir>/.scratch.
	ScratchDir string `json:"scratch_dir"`

	// Dedup enables the two-phase deduplication (intra-chunk plus the final
	// cross-shard pass). Disabling it yields the append-only variant.
	Dedup *bool `json:"dedup"`

	// Progress draws a per-type progress bar over the file list.
	Progress bool `json:"progress"`

	Parser  ParserConfig   `json:"parser"`
	Runtime RuntimeConfig  `json:"runtime"`
	Mirror  MirrorConfig   `json:"mirror"`
	Logging logging.Config `json:"logging"`
}

// ParserConfig tunes the delimited-text parser.
type ParserConfig struct {
	// Comma is the field delimiter; defaults to ';' (the publisher's format,
	// chosen because the data uses ',' as the decimal separator).
	Comma string `json:"comma"`

	// ChunkRows caps the number of rows materialized per chunk. Defaults to
	// DefaultChunkRows.
	ChunkRows int `json:"chunk_rows"`
}

// RuntimeConfig controls cross-type concurrency. Entity types share no state
// and write disjoint outputs, so they can be processed in parallel.
type RuntimeConfig struct {
	// TypeWorkers is the number of entity types ingested concurrently.
	// Defaults to 1 (fully sequential).
	TypeWorkers int `json:"type_workers"`
}

// MirrorConfig configures the optional Postgres mirror of the reference
// tables, used by the dashboard for its filter dropdowns. Mirroring is
// skipped entirely when DSN is empty.
type MirrorConfig struct {
	// DSN is the pgx connection string.
	DSN string `json:"dsn"`

	// Schema is the target schema; defaults to "public".
	Schema string `json:"schema"`
}

// DedupEnabled reports whether deduplication is on. It defaults to true when
// the field is absent from the config file.
func (p Pipeline) DedupEnabled() bool {
	return p.Dedup == nil || *p.Dedup
}

// CommaRune returns the configured delimiter as a rune, defaulting to ';'.
func (p ParserConfig) CommaRune() rune {
	if p.Comma == "" {
		return ';'
	}
	return []rune(p.Comma)[0]
}

// ChunkRowsOrDefault returns ChunkRows, or DefaultChunkRows when unset.
func (p ParserConfig) ChunkRowsOrDefault() int {
	if p.ChunkRows > 0 {
		return p.ChunkRows
	}
	return DefaultChunkRows
}

// Workers returns TypeWorkers clamped to at least 1.
func (r RuntimeConfig) Workers() int {
	if r.TypeWorkers > 1 {
		return r.TypeWorkers
	}
	return 1
}

// Load decodes the pipeline config from path and applies environment
// overrides. A missing .env file is not an error.
func Load(path string) (Pipeline, error) {
	_ = godotenv.Load()

	var p Pipeline
	f, err := os.Open(path)
	if err != nil {
		return p, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return p, err
	}
	p.applyEnv()
	return p, nil
}

// applyEnv overlays CNPJ_* environment variables onto the decoded config.
func (p *Pipeline) applyEnv() {
	p.Job = getEnv("CNPJ_JOB", p.Job)
	p.InputDir = getEnv("CNPJ_INPUT_DIR", p.InputDir)
	p.OutputDir = getEnv("CNPJ_OUTPUT_DIR", p.OutputDir)
	p.ScratchDir = getEnv("CNPJ_SCRATCH_DIR", p.ScratchDir)
	p.Mirror.DSN = getEnv("CNPJ_MIRROR_DSN", p.Mirror.DSN)
	p.Parser.ChunkRows = getEnvInt("CNPJ_CHUNK_ROWS", p.Parser.ChunkRows)
	p.Runtime.TypeWorkers = getEnvInt("CNPJ_TYPE_WORKERS", p.Runtime.TypeWorkers)
	p.Logging.Level = getEnv("CNPJ_LOG_LEVEL", p.Logging.Level)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
