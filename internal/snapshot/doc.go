// Package snapshot builds v1 snapshot documents from upstream records and
// persists them at their contract path as RFC 8785 canonical bytes.
//
// A snapshot is an object with exactly three members:
//
//	{
//	  "record": {...},                   // upstream payload, always an object
//	  "schema": "srcf.ops.snapshot.v1",
//	  "source": {
//	    "civil_tz": "Europe/London",     // label only, no conversion
//	    "generated_at": "2024-01-01T00:00:00Z",
//	    "row_id": "42",
//	    "system": "baserow",
//	    "table": "people"
//	  }
//	}
//
// A record that is not an object is wrapped as {"_raw": record}.
//
// Writes fail fast: invalid inputs and values without a canonical form are
// rejected before any filesystem call. The file is replaced by rename, so a
// reader sees either the previous snapshot or the new one.
package snapshot
