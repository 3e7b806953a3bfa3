// Package validate verifies that a snapshot tree conforms to the v1
// contract.
//
// Every *.json file under root/snapshots/v1 is checked independently, and
// the rules are applied in a fixed order. The first violated rule is
// reported and the remaining rules for that file are skipped:
//
//  1. bytes are UTF-8 JSON                             parse_error
//  2. bytes equal their RFC 8785 re-encoding           not_canonical
//  3. top level is an object                           shape_error
//  4. schema is "srcf.ops.snapshot.v1"                 schema_error
//  5. source is an object with civil_tz "Europe/London" metadata_error
//  6. source.generated_at contains T and ends in Z     timestamp_error
//  7. source.table and source.row_id are strings       metadata_error
//  8. the file sits at the path its source names       path_mismatch
//  9. record is an object                              shape_error
//
// Rule 2 is the central one. It proves the file came from a conforming
// writer and was not hand-edited, without checking whitespace, key order
// or number formatting one by one.
//
// Files are checked in parallel. The tree is only read.
package validate
