// Package cache implements the compiled-grammar cache: a content-addressed
// store mapping a grammar's construction description to its Freeze results,
// so that re-freezing the same grammar source across process restarts can
// be skipped. It is a cache, never a source of truth - a miss or a
// version-mismatched entry always falls back to re-freezing from the
// grammar construction call, never an error.
package cache

import (
	"encoding/hex"
	"fmt"

	"github.com/dekarrin/parsekit/parser"
	"github.com/dekarrin/rezi"
	"golang.org/x/crypto/blake2b"
)

// formatVersion is bumped whenever FrozenGrammar's encoded shape changes in
// a way that makes older cache entries unreadable; Restore rejects entries
// whose stamped version doesn't match.
const formatVersion = 1

// FrozenGrammar is what gets persisted: enough of a grammar's Freeze
// results to restore it via parser.Grammar.ApplyPrecomputed without
// recomputing equivalence classes or the nullability/statefulness
// fixpoints.
type FrozenGrammar struct {
	Version int
	RootID  int
	Entries []parser.PrecomputedFreeze
}

// Capture builds a FrozenGrammar from g, which must have already been
// successfully frozen.
func Capture(g *parser.Grammar) FrozenGrammar {
	entries := make([]parser.PrecomputedFreeze, g.Len())
	for i := 1; i <= g.Len(); i++ {
		entries[i-1] = g.Precomputed(parser.ID(i))
	}
	return FrozenGrammar{
		Version: formatVersion,
		RootID:  int(g.Root()),
		Entries: entries,
	}
}

// Restore applies fg to g. It returns false (never an error - a cache is
// never a source of truth) if fg's version doesn't match, or if applying
// it to g fails for any reason, such as a parser-count mismatch; the
// caller should fall back to a real Freeze in either case.
func Restore(g *parser.Grammar, fg FrozenGrammar) bool {
	if fg.Version != formatVersion {
		return false
	}
	if err := g.ApplyPrecomputed(parser.ID(fg.RootID), fg.Entries); err != nil {
		return false
	}
	return true
}

// Encode rezi-encodes fg for storage in a Store.
func Encode(fg FrozenGrammar) []byte {
	return rezi.EncBinary(fg)
}

// Decode rezi-decodes data (as produced by Encode) into a FrozenGrammar. A
// decoding failure is always treated as a cache miss by callers, never a
// fatal error.
func Decode(data []byte) (FrozenGrammar, error) {
	var fg FrozenGrammar
	n, err := rezi.DecBinary(data, &fg)
	if err != nil {
		return FrozenGrammar{}, fmt.Errorf("rezi decode: %w", err)
	}
	if n != len(data) {
		return FrozenGrammar{}, fmt.Errorf("decoded byte count mismatch: consumed %d/%d", n, len(data))
	}
	return fg, nil
}

// Key returns the cache key for a grammar's construction description: the
// blake2b content hash of description, hex-encoded. Callers typically pass
// a stable textual rendering of the construction call (e.g. the EBNF
// source, or a canonical dump of the combinator calls) as description.
func Key(description string) string {
	sum := blake2b.Sum256([]byte(description))
	return hex.EncodeToString(sum[:])
}

// Store persists and retrieves encoded FrozenGrammar values by key.
type Store interface {
	// Get returns the encoded FrozenGrammar for key, or ok=false on a
	// cache miss. It never returns an error for a plain miss.
	Get(key string) (data []byte, ok bool, err error)

	// Put stores data (an encoded FrozenGrammar) under key, overwriting
	// any existing entry.
	Put(key string, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}
