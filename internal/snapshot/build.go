package snapshot

import (
	"fmt"
	"time"

	"github.com/srcf/srcf-sync/internal/contract"
	"github.com/srcf/srcf-sync/internal/jcs"
)

// RawKey wraps a non-object upstream record.
const RawKey = "_raw"

// TimestampLayout is RFC3339 at second precision with a literal Z.
const TimestampLayout = "2006-01-02T15:04:05Z"

// FormatTimestamp renders t in UTC per TimestampLayout. Sub-second precision
// is truncated, never rounded.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}

// Build assembles the snapshot document for one row.
// record may be a jcs.Value or a plain Go value accepted by jcs.FromGo.
func Build(table, rowID string, record any, system string, now time.Time) (jcs.Object, error) {
	if err := contract.CheckTable(table); err != nil {
		return nil, err
	}
	if err := contract.CheckRowID(rowID); err != nil {
		return nil, err
	}

	payload, err := jcs.FromGo(record)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	obj, ok := payload.(jcs.Object)
	if !ok {
		obj = jcs.Object{RawKey: payload}
	}

	return jcs.NewObject(
		jcs.P("schema", jcs.String(contract.SchemaV1)),
		jcs.P("source", jcs.NewObject(
			jcs.P("system", jcs.String(system)),
			jcs.P("table", jcs.String(table)),
			jcs.P("row_id", jcs.String(rowID)),
			jcs.P("generated_at", jcs.String(FormatTimestamp(now))),
			jcs.P("civil_tz", jcs.String(contract.CivilTZ)),
		)),
		jcs.P("record", obj),
	), nil
}
