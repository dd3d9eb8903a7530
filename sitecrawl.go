// Package sitecrawl discovers every reachable same-domain link starting
// from a seed URL. It fetches pages concurrently up to a fixed cap, visits
// each page at most once and reports the set of links it found.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, rod/).
package sitecrawl
