// Package builtin contains the reusable record transformers used by the
// ingestion pipeline.
//
// DeDup collapses duplicate records by identity key, keeping the first
// occurrence in input order. The same transformer serves both dedup scopes:
// the chunk-local pass runs it over one chunk at a time (bounded memory,
// misses duplicates that span chunk or file boundaries), and the cross-shard
// pass runs it once over a type's entire dataset. Correctness of the two-
// phase scheme rests on the key function being pure, so both scopes agree on
// what counts as a duplicate.
package builtin

import (
	"github.com/zeebo/xxh3"

	"cnpjetl/pkg/records"
)

// DeDup is a keep-first de-duplication transformer.
type DeDup struct {
	// KeyOf derives the identity key for a record. It must be pure: the key
	// may depend only on the record's own field values.
	KeyOf func(records.Record) string
}

// Apply returns the records of in whose identity key was not seen earlier in
// in, preserving input order, along with the number of duplicates dropped.
//
// Seen keys are tracked as xxh3 hashes rather than the key strings
// themselves; with tens of millions of rows per type this keeps the seen-set
// at 8 bytes per key.
func (d DeDup) Apply(in []records.Record) ([]records.Record, int) {
	if len(in) == 0 || d.KeyOf == nil {
		return in, 0
	}

	seen := make(map[uint64]struct{}, len(in))
	out := in[:0:0]
	dropped := 0
	for _, r := range in {
		h := xxh3.HashString(d.KeyOf(r))
		if _, dup := seen[h]; dup {
			dropped++
			continue
		}
		seen[h] = struct{}{}
		out = append(out, r)
	}
	return out, dropped
}
