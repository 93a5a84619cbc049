// Package core provides the business logic for viewing uploaded CSV files.
//
// This package contains all domain logic independent of any UI or transport
// layer. The web handlers, the CLI and the view controller all use it
// without modification.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Parsing: [Parse] turns decoded text into an immutable [Table]. Rows
//     whose cell count differs from the header are skipped and reported as
//     "Row N" diagnostics instead of failing the upload.
//   - Cache: [TableCache] hands out ids for parsed tables. Expiry and
//     eviction belong to the pluggable store underneath it.
//   - Query: [Evaluate] filters, then sorts, then paginates a table. The same
//     evaluator serves HTTP requests and in-process views.
//   - Service: The main entry point for uploads, queries and exports.
//
// # Upload Pipeline
//
// Uploads are bounded and decoded before parsing:
//
//  1. Client calls [Service.Ingest] with an io.Reader
//  2. The reader is wrapped with BOM skipping and a size limit
//  3. The payload is decoded as UTF-8, or as ISO-8859-1 when it is not valid UTF-8
//  4. The table is parsed, cached, and optionally recorded in the upload history
//
// # Querying
//
// A [Query] is normalized before use: page and page size are at least 1,
// the direction is asc unless it is exactly desc, and an empty search column
// searches every column. Search is a case-folded substring match. Sorting is
// stable; two numeric cells compare as numbers, anything else is collated
// for the configured language.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: File errors (size, format, encoding, empty input)
//   - DATA001: Unknown or expired table id
//   - UPL002-UPL005: Upload errors (busy, cancelled, timeout)
//   - RATE001: Rate limit exceeded
package core
