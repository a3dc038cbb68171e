// Package dedupe resolves builder identity so that the same person reported by
// several sponsors merges into one aggregated builder.
//
// Resolution order, first match wins:
//  1. talent protocol id            -> "talent_<id>"
//  2. display name, else name       -> "name_<lowercase trimmed name>"
//  3. sponsor-local id              -> "id_<sponsor>:<id>"
//
// Two different people sharing a display name and lacking a talent protocol id
// collide under rule 2. Callers that cannot accept that can disable name
// merging with WithNameMerging(false).
package dedupe

import (
	"strconv"
	"strings"

	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
)

// Key prefixes.
const (
	PrefixTalent = "talent_"
	PrefixName   = "name_"
	PrefixID     = "id_"
)

// Resolver derives identity keys from builder records.
type Resolver struct {
	mergeByName bool
}

// NewResolver creates a resolver with configuration options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{mergeByName: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = NewResolver() //nolint:gochecknoglobals // stateless default

// Key derives the identity key of rec as reported by sponsor using the default resolver.
func Key(sponsor string, rec *model.BuilderRecord) string {
	return defaultResolver.Key(sponsor, rec)
}

// Key derives the identity key of rec as reported by sponsor.
func (r *Resolver) Key(sponsor string, rec *model.BuilderRecord) string {
	if id := strings.TrimSpace(rec.TalentProtocolID); id != "" {
		return PrefixTalent + id
	}
	if r.mergeByName {
		if name := displayName(rec); name != "" {
			return PrefixName + strings.ToLower(name)
		}
	}
	// The sponsor is part of the weakest key: a sponsor-local id carries no
	// signal that two sponsors are talking about the same person.
	return PrefixID + sponsor + ":" + strconv.FormatInt(rec.ID, 10)
}

func displayName(rec *model.BuilderRecord) string {
	if n := strings.TrimSpace(rec.DisplayName); n != "" {
		return n
	}
	return strings.TrimSpace(rec.Name)
}

// Index records which identity keys were already seen during one aggregation
// run and where their builder lives in the run's builder list.
// It is not safe for concurrent use; a run owns its index exclusively.
type Index struct {
	pos map[string]int
}

// NewIndex creates an empty index sized for capacity keys.
func NewIndex(capacity int) *Index {
	if capacity < 0 {
		capacity = 0
	}
	return &Index{pos: make(map[string]int, capacity)}
}

// SeenAndRecord checks if key was seen and records it at position next if not.
// Returns the key's position and true if it was already seen, or next and false
// if it was newly recorded.
func (i *Index) SeenAndRecord(key string, next int) (int, bool) {
	if p, ok := i.pos[key]; ok {
		return p, true
	}
	i.pos[key] = next
	return next, false
}

// Lookup returns the position recorded for key.
func (i *Index) Lookup(key string) (int, bool) {
	p, ok := i.pos[key]
	return p, ok
}

// Size returns the number of recorded keys.
func (i *Index) Size() int {
	return len(i.pos)
}
