package model

import (
	"slices"
	"strings"
)

// Flag is the per-field status tag describing where a value came from or
// what state it is in.
type Flag string

const (
	FlagMissing         Flag = "missing"
	FlagCleaned         Flag = "cleaned"
	FlagSplit           Flag = "split"
	FlagFormatted       Flag = "formatted"
	FlagPersonalEmail   Flag = "personal_email"
	FlagBusinessEmail   Flag = "business_email"
	FlagEnriched        Flag = "enriched"
	FlagNeedsEnrichment Flag = "needs_enrichment"
	FlagValid           Flag = "valid"
	FlagInvalid         Flag = "invalid"
	FlagRisky           Flag = "risky"
	FlagUnknown         Flag = "unknown"
	FlagRoleAccount     Flag = "role_account"
)

// IsTerminal reports whether the flag marks a row as already processed by
// enrichment.
func (f Flag) IsTerminal() bool {
	switch f {
	case FlagEnriched, FlagValid, FlagInvalid, FlagRisky, FlagRoleAccount:
		return true
	default:
		return false
	}
}

// Valid reports whether f is one of the known flags.
func (f Flag) Valid() bool {
	switch f {
	case FlagMissing, FlagCleaned, FlagSplit, FlagFormatted,
		FlagPersonalEmail, FlagBusinessEmail, FlagEnriched, FlagNeedsEnrichment,
		FlagValid, FlagInvalid, FlagRisky, FlagUnknown, FlagRoleAccount:
		return true
	default:
		return false
	}
}

// EnrichmentSourceColumn holds the "+"-joined list of mechanisms that
// supplied enriched values for a row.
const EnrichmentSourceColumn = "enrichment_source"

// Enrichment sources.
const (
	SourceWebsite = "website"
	SourceIcypeas = "icypeas"
	SourcePattern = "pattern"
)

// AppendSource adds source to an existing "+"-joined provenance tag unless it
// is already present.
func AppendSource(existing, source string) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return source
	}
	parts := strings.Split(existing, "+")
	if slices.Contains(parts, source) {
		return existing
	}
	return existing + "+" + source
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
