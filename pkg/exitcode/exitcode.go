// Package exitcode provides standardized exit codes for docfix
package exitcode

// Exit codes for the docfix CLI
const (
	Success            = 0
	GeneralError       = 1
	ConfigError        = 2
	ValidationFailed   = 3
	FileSystemError    = 4
	BackupAborted      = 10
	ManifestAborted    = 11
	CompletedWithError = 12
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationFailed:
		return "Validation found issues"
	case FileSystemError:
		return "File system error"
	case BackupAborted:
		return "Aborted: backup failed"
	case ManifestAborted:
		return "Aborted: manifest could not be loaded"
	case CompletedWithError:
		return "Completed with errors"
	default:
		return "Unknown error"
	}
}

// Aborted reports whether the code marks a run that stopped before processing any file
func Aborted(code int) bool {
	return code == BackupAborted || code == ManifestAborted
}
