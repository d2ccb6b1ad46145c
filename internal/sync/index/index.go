// Package index builds the in-memory lookup the orchestrator uses to decide
// whether a directory identity is new, already linked, or discoverable only
// by email. The index is built once per run, before any writes, and is
// read-only afterwards.
package index

import (
	"strings"

	"dirsync/internal/sync/models"
)

// Index keys existing employee records by external-id and by lower-cased
// email. A record carrying both populates both keys.
type Index struct {
	byExternalID map[string]*models.TargetRecord
	byEmail      map[string]*models.TargetRecord
}

// Build indexes the given records. Records without either key are held only
// for reconciliation scans by the caller and are not retrievable here.
func Build(records []*models.TargetRecord) *Index {
	idx := &Index{
		byExternalID: make(map[string]*models.TargetRecord, len(records)),
		byEmail:      make(map[string]*models.TargetRecord, len(records)),
	}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if rec.ExternalID != "" {
			idx.byExternalID[rec.ExternalID] = rec
		}
		if rec.Email != "" {
			idx.byEmail[strings.ToLower(rec.Email)] = rec
		}
	}
	return idx
}

// Lookup resolves a source record to its existing employee record, if any.
// External-id is authoritative once linked; email is the first-sync fallback
// that prevents duplicate creation.
func (idx *Index) Lookup(source models.SourceRecord) (*models.TargetRecord, bool) {
	if source.ExternalID != "" {
		if rec, ok := idx.byExternalID[source.ExternalID]; ok {
			return rec, true
		}
	}
	if source.Email != "" {
		if rec, ok := idx.byEmail[strings.ToLower(source.Email)]; ok {
			return rec, true
		}
	}
	return nil, false
}

// Len reports how many distinct external-id keys are indexed.
func (idx *Index) Len() int {
	return len(idx.byExternalID)
}
