// Package jcs implements the RFC 8785 JSON Canonicalization Scheme over a
// small sealed value model.
//
// This is the only serialization used for snapshot files. The validator
// proves a stored file conforms by parsing it and re-encoding it: a file is
// canonical exactly when Encode(Parse(raw)) reproduces raw byte for byte.
//
// Canonical form:
//   - Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//   - Minimal string escaping: quote, backslash and U+0000..U+001F only
//   - ECMAScript Number::toString formatting for numbers, -0 as 0
//   - No insignificant whitespace, no trailing newline
//
// No Unicode normalization is applied. Two strings that differ only in
// composition encode differently.
package jcs
