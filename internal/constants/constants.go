package constants

// Boolean string values
const (
	BoolTrue  = "true"
	BoolFalse = "false"
	BoolYes   = "yes"
	BoolNo    = "no"
	BoolOne   = "1"
	BoolZero  = "0"
)

// Search paging defaults
const (
	DefaultSearchStart = 0
	DefaultSearchLimit = 50
)

// Notebook indexing
const (
	NotebookCore = "jupyter-notebook"
	CellCore     = "jupyter-cell"

	// Maximum markdown heading level recorded as its own field
	MaxHeadingLevel = 6
)

// Merge marker
const (
	MarkerMagic = "%%nbsearch"
)

// File permissions
const (
	ConfigFileMode = 0600 // Secure file permissions for config
)
