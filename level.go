package mozlog

// Level is the closed set of record severities understood by the drain.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

// Severity maps a level onto the MozLog 0-7 syslog-style scale.
func Severity(l Level) uint8 {
	switch l {
	case LevelCritical:
		return 2
	case LevelError:
		return 3
	case LevelWarning:
		return 4
	case LevelInfo:
		return 6
	default: // Debug, Trace
		return 7
	}
}

// GCPSeverity maps a level onto the Google Cloud Logging severity scale.
func GCPSeverity(l Level) int {
	switch l {
	case LevelCritical:
		return 600
	case LevelError:
		return 500
	case LevelWarning:
		return 400
	case LevelInfo:
		return 200
	default: // Debug, Trace
		return 100
	}
}
