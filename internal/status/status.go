// Package status provides the shared severity vocabulary used by parsing,
// planning, and compilation. User-triggerable conditions are always reported
// as Status values; Go errors are reserved for infrastructure failures.
package status

import "fmt"

// Level is the severity of a Status, totally ordered from OK to Fatal.
type Level int

const (
	OK Level = iota + 1
	Warning
	Error
	Fatal
)

// String returns the canonical upper-case name of the level.
func (l Level) String() string {
	switch l {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Status is a single diagnostic attached to a plan node or parse result.
type Status struct {
	Level       Level
	Description string
}

// Errorf builds an Error-level status from a format string.
func Errorf(format string, args ...any) Status {
	return Status{Level: Error, Description: fmt.Sprintf(format, args...)}
}

// Warningf builds a Warning-level status from a format string.
func Warningf(format string, args ...any) Status {
	return Status{Level: Warning, Description: fmt.Sprintf(format, args...)}
}

// Fatalf builds a Fatal-level status from a format string.
func Fatalf(format string, args ...any) Status {
	return Status{Level: Fatal, Description: fmt.Sprintf(format, args...)}
}

// OKf builds an OK-level status from a format string.
func OKf(format string, args ...any) Status {
	return Status{Level: OK, Description: fmt.Sprintf(format, args...)}
}

func (s Status) String() string {
	return s.Level.String() + ": " + s.Description
}

// HasLevel reports whether any status in the list is at or above min.
func HasLevel(statuses []Status, min Level) bool {
	for _, s := range statuses {
		if s.Level >= min {
			return true
		}
	}
	return false
}

// Max returns the highest level present in the list, or OK for an empty
// list (a node with no explicit statuses is implicitly OK).
func Max(statuses []Status) Level {
	max := OK
	for _, s := range statuses {
		if s.Level > max {
			max = s.Level
		}
	}
	return max
}

// Filter returns the statuses at or above min, preserving order.
func Filter(statuses []Status, min Level) []Status {
	var out []Status
	for _, s := range statuses {
		if s.Level >= min {
			out = append(out, s)
		}
	}
	return out
}
