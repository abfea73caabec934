// Package glyph holds the ingest-side data model: glyph records, the
// per-axis vector tables that map original values to rank vectors, the
// per-axis summary statistics and the record store that owns them.
//
// A dataset is immutable once loaded. New data replaces the whole
// dataset through Store.Replace; records are never edited in place.
package glyph
