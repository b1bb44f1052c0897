// Package core provides the business logic for device inventory cleaning.
//
// This package holds all domain logic independent of any UI. It is used by
// the command line tool and by tests without modification.
//
// # Architecture
//
// A cleaning run moves through four stages:
//
//   - Ingestion: [Ingest] reads CSV, TSV or xlsx sources, sniffs delimiters
//     and concatenates them into one [Table] with stable [RowID]s.
//   - Schema: [InspectColumns], [SuggestMapping] and [ApplyMapping] bring the
//     headers onto the canonical device schema ([DeviceSchema]).
//   - Checking: the [Checker]s from [DefaultCheckers] run in a fixed order
//     and [Aggregate] partitions their [Issue]s into auto-correctable ones
//     and a per-row manual view.
//   - Resolution: a [Session] applies suggestions, replacements, hand edits
//     and ignores to the live table and records each in its [History].
//
// # Resolution
//
// Every resolution is keyed by row identity. Rows moved to the ignored table
// can no longer be edited; naming one yields an [*UnknownRowError] while the
// rest of the batch still applies:
//
//	report := sess.Check(ctx, core.AggregateOptions{})
//	if _, err := sess.ApplySuggestions(ctx, report.WithSuggestion); err != nil {
//	    return err
//	}
//	rows := report.ManualRowIDs(core.ColCategory)
//	if _, err := sess.ReplaceAll(ctx, rows, core.ColCategory, "OTHER"); err != nil {
//	    return err
//	}
//
// # Countries
//
// Country values must be ISO 3166-1 alpha-2 codes. [CountryNormalizer]
// resolves free text through an embedded ISO table and, when configured, a
// [RetryingGeocoder] backed by a Nominatim endpoint.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code:
//
//   - SCH001-SCH002: Schema errors (missing columns, duplicate targets)
//   - RES001-RES002: Resolution errors (unknown rows or columns)
//   - FILE001-FILE005: Source errors (empty, unsupported, malformed, missing, too large)
//   - PLAN001: Invalid resolution plan
//   - GEO001-GEO002: Geocoder failures
package core
