package config

import (
	"strings"

	"dirsync/internal/sync/models"
)

// Sync is the immutable behavior configuration for the orchestrator. It is
// resolved once (defaults + overrides) and passed in at construction; nothing
// mutates it afterwards.
type Sync struct {
	// ChunkSize bounds how many source records are processed per batch.
	ChunkSize int
	// Workers bounds concurrent classification within a chunk.
	Workers int
	// UpdateExisting controls whether matched records are updated or skipped.
	UpdateExisting bool
	// DeactivateMissing enables full-sync reconciliation of unmatched
	// active records.
	DeactivateMissing bool
	// IncludeDisabled admits disabled directory accounts into full and
	// group syncs.
	IncludeDisabled bool
	// UserTypes is an allow-list of directory roles (member/guest). Empty
	// means no restriction.
	UserTypes []models.UserType
	// Departments is an allow-list of departments. Empty means no
	// restriction.
	Departments []string
	// Exclusions is matched case-insensitively against principal name or
	// email; matching records never reach classification.
	Exclusions []string
	// Mappings is the ordered field-mapping list applied by the mapper.
	Mappings []models.FieldMapping
	// NotifyRecipients receive the completed run summary.
	NotifyRecipients []string
}

// Override carries per-call configuration overrides. Nil fields mean "keep
// the base value"; slices override wholesale when non-nil.
type Override struct {
	ChunkSize         *int
	Workers           *int
	UpdateExisting    *bool
	DeactivateMissing *bool
	IncludeDisabled   *bool
	UserTypes         []models.UserType
	Departments       []string
	Exclusions        []string
	Mappings          []models.FieldMapping
	NotifyRecipients  []string
}

// Default returns the stock configuration: update on match, reconcile on
// full sync, disabled accounts excluded, no role/department/exclusion
// restrictions, and the default mapping set.
func Default() Sync {
	return Sync{
		ChunkSize:         50,
		Workers:           4,
		UpdateExisting:    true,
		DeactivateMissing: true,
		IncludeDisabled:   false,
		Mappings:          DefaultMappings(),
	}
}

// Merge applies an override onto a base configuration and returns the result.
// Pure: neither input is modified.
func Merge(base Sync, o Override) Sync {
	out := base
	if o.ChunkSize != nil {
		out.ChunkSize = *o.ChunkSize
	}
	if o.Workers != nil {
		out.Workers = *o.Workers
	}
	if o.UpdateExisting != nil {
		out.UpdateExisting = *o.UpdateExisting
	}
	if o.DeactivateMissing != nil {
		out.DeactivateMissing = *o.DeactivateMissing
	}
	if o.IncludeDisabled != nil {
		out.IncludeDisabled = *o.IncludeDisabled
	}
	if o.UserTypes != nil {
		out.UserTypes = append([]models.UserType(nil), o.UserTypes...)
	}
	if o.Departments != nil {
		out.Departments = append([]string(nil), o.Departments...)
	}
	if o.Exclusions != nil {
		out.Exclusions = append([]string(nil), o.Exclusions...)
	}
	if o.Mappings != nil {
		out.Mappings = append([]models.FieldMapping(nil), o.Mappings...)
	}
	if o.NotifyRecipients != nil {
		out.NotifyRecipients = append([]string(nil), o.NotifyRecipients...)
	}
	return out
}

// Normalize trims, lowercases, and dedupes the string allow/deny lists so
// filter matching can compare directly. Returns a new value.
func Normalize(cfg Sync) Sync {
	out := cfg
	out.Departments = dedupeLower(cfg.Departments)
	out.Exclusions = dedupeLower(cfg.Exclusions)
	if cfg.ChunkSize <= 0 {
		out.ChunkSize = Default().ChunkSize
	}
	if cfg.Workers <= 0 {
		out.Workers = Default().Workers
	}
	return out
}

func dedupeLower(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
