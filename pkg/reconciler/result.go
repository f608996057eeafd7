package reconciler

import "fmt"

// Stats counts the outcome of a reconciliation.
type Stats struct {
	Total      int `json:"total" yaml:"total"`
	Keep       int `json:"keep" yaml:"keep"`
	Update     int `json:"update" yaml:"update"`
	Remove     int `json:"remove" yaml:"remove"`
	Append     int `json:"append" yaml:"append"`
	Validated  int `json:"validated" yaml:"validated"`
	Pending    int `json:"pending" yaml:"pending"`
	Ungoverned int `json:"ungoverned" yaml:"ungoverned"`
}

// Summarize counts entries by process.
func Summarize(entries []Entry) Stats {
	var s Stats
	for _, e := range entries {
		s.Total++
		switch e.Process {
		case ProcessUpdate:
			s.Update++
		case ProcessRemove:
			s.Remove++
		case ProcessAppend:
			s.Append++
		default:
			s.Keep++
		}
		if e.Validated {
			s.Validated++
		}
		if e.Pending() {
			s.Pending++
		}
		if !e.Governed {
			s.Ungoverned++
		}
	}
	return s
}

// HasChanges returns true if any entry still requires a write.
func (s Stats) HasChanges() bool {
	return s.Pending > 0
}

// String returns a human-readable summary.
func (s Stats) String() string {
	if s.Total == 0 {
		return "No entries."
	}
	return fmt.Sprintf("%d entries: %d keep, %d update, %d remove, %d append (%d validated, %d pending)",
		s.Total, s.Keep, s.Update, s.Remove, s.Append, s.Validated, s.Pending)
}
