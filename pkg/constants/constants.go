// Package constants provides shared constants used throughout the mapmerge codebase.
// This includes file permissions, output file names and the format version
// stamped on derived documents.
package constants

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Document constants describe the mapping file layout.
const (
	// FormatVersion is the format_version written on merged and duplicates documents.
	FormatVersion = "1"

	// FormatVersionKey is the top-level key holding the format version.
	FormatVersionKey = "format_version"

	// ItemsKey is the top-level key holding the item type mapping.
	ItemsKey = "items"

	// NameKey is the entry field holding the entry name.
	NameKey = "name"

	// ModelDataKey is the entry field holding the numeric custom model data id.
	ModelDataKey = "custom_model_data"
)

// Output file names
const (
	// CleanSuffix is appended to an input's basename to name its cleaned output.
	CleanSuffix = "_clean"

	// JSONExt is the extension of every written document.
	JSONExt = ".json"

	// MergedFile is the name of the merged output.
	MergedFile = "merged.json"

	// DuplicatesFile is the name of the exact duplicates output.
	DuplicatesFile = "duplicates.json"

	// DefaultOutputDir is where outputs go when no directory is configured.
	DefaultOutputDir = "."
)

// MinInputs is the smallest number of documents a run accepts.
const MinInputs = 2

// Indent is the indentation used when writing documents.
const Indent = "  "

// MaxExactID is the largest integer custom_model_data that a float64 holds exactly.
const MaxExactID = 1 << 53
