package validate

import "fmt"

// Kind classifies a contract violation.
type Kind string

const (
	KindMissingTree  Kind = "missing_tree"  // root/snapshots/v1 does not exist
	KindRead         Kind = "read_error"    // file could not be read
	KindParse        Kind = "parse_error"   // not UTF-8 JSON
	KindNotCanonical Kind = "not_canonical" // bytes differ from the RFC 8785 re-encoding
	KindShape        Kind = "shape_error"   // top level or record is not an object
	KindSchema       Kind = "schema_error"
	KindMetadata     Kind = "metadata_error"
	KindTimestamp    Kind = "timestamp_error"
	KindPathMismatch Kind = "path_mismatch"
)

// Finding is one nonconformance, attributed to the file it was found in.
type Finding struct {
	Path    string `json:"path"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// String renders the finding as a single report line.
func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Path, f.Kind, f.Message)
}

func finding(path string, kind Kind, format string, args ...any) *Finding {
	return &Finding{Path: path, Kind: kind, Message: fmt.Sprintf(format, args...)}
}
