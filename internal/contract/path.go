// Package contract defines the on-disk snapshot contract: the constant
// schema tag and timezone label, and the one legal path for a row's
// snapshot file.
//
//	<root>/snapshots/v1/<table>/<row_id>.json
//
// Paths are always computed fresh from their inputs; nothing is cached
// because the tree may change between calls.
package contract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// SchemaV1 is the schema tag embedded in every v1 snapshot.
	SchemaV1 = "srcf.ops.snapshot.v1"

	// CivilTZ labels the civil timezone context of the data. It is a label
	// only; generated_at is always UTC.
	CivilTZ = "Europe/London"

	// DefaultSystem is the upstream system identifier used when none is given.
	DefaultSystem = "baserow"

	// FileExt is the extension of every snapshot file.
	FileExt = ".json"
)

var tablePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// InputError reports a table slug or row id that has no legal snapshot path.
// It is raised before any I/O takes place.
type InputError struct {
	Field  string // "table" or "row_id"
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// CheckTable verifies that table is a lowercase slug of letters, digits and
// hyphens that does not start with a hyphen.
func CheckTable(table string) error {
	if !tablePattern.MatchString(table) {
		return &InputError{Field: "table", Value: table, Reason: "must match ^[a-z0-9][a-z0-9-]*$"}
	}
	return nil
}

// CheckRowID verifies that rowID names exactly one file inside the table
// directory.
func CheckRowID(rowID string) error {
	if rowID == "." || rowID == ".." {
		return &InputError{Field: "row_id", Value: rowID, Reason: "must not be a relative directory reference"}
	}
	if strings.ContainsAny(rowID, `/\`) {
		return &InputError{Field: "row_id", Value: rowID, Reason: "must not contain path separators"}
	}
	return nil
}

// TreeDir returns the directory holding all v1 snapshots under root.
func TreeDir(root string) string {
	return filepath.Join(root, "snapshots", "v1")
}

// SnapshotPath returns the one legal path for the snapshot of (table, rowID)
// under root. It performs no normalization beyond path composition.
func SnapshotPath(root, table, rowID string) (string, error) {
	if err := CheckTable(table); err != nil {
		return "", err
	}
	if err := CheckRowID(rowID); err != nil {
		return "", err
	}
	return filepath.Join(TreeDir(root), table, rowID+FileExt), nil
}
