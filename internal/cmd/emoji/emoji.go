// Package emoji holds the status symbols printed by the CLI.
package emoji

// Status symbols.
const (
	Success = "✓"
	Error   = "✗"
	Stop    = "■"
	Warning = "!"
	Info    = "i"
	Unknown = "?"
)
