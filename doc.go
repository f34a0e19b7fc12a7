// Package fhirnormalizer normalizes coded clinical data into typed,
// comparable values for downstream clinical-trial matching logic.
//
// Three normalization engines do the real work, each usable on its own:
//
//   - pkg/codesystem and pkg/codemap map raw terminology-system strings to a
//     closed canonical set and resolve (system, code) pairs to the profile
//     ids they are registered under.
//   - pkg/fhirdate parses FHIR date/time strings into UTC instants tagged
//     with the accuracy of the source text, with leap-year and leap-second
//     aware validation.
//   - pkg/tnm parses TNM cancer-staging notation, resolves coded staging
//     observations through a per-system category table, and classifies the
//     result into an overall stage group.
//
// # Quick Start
//
//	import (
//	    "github.com/gofhir/normalizer/engine"
//	    "github.com/gofhir/normalizer/loader"
//	)
//
//	mappings, err := loader.LoadProfileMappings("mappings.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	n, err := engine.New(mappings)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	instant, err := n.ParseDate("2024-03-02")
//	stage, status := n.StageFromText("T1 N0 M0")
//
// # Design
//
// Every engine is a synchronous pure function over its call-local inputs.
// Lookup tables (the code index, the TNM category table) are built once at
// construction and never mutated afterwards, so all types here are safe to
// share across goroutines without locking.
//
// Errors follow an asymmetric policy: fields missing from caller data are
// tolerated as absent, while a present-but-unrecognized terminology system is
// surfaced as a fatal error, since it points at configuration rather than
// data noise. The engines never retry, fall back or log; that belongs to the
// caller.
package fhirnormalizer
