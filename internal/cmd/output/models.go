package output

import "io"

// Tabular is implemented by results with a table rendering of their own.
type Tabular interface {
	TableData() Data
}

// Write writes data to w in format. Table formats use the table rendering
// of Tabular data; other formats encode data itself.
func Write(w io.Writer, format string, data any) error {
	f := DetectFormat(format)
	formatter := NewFormatter(f)
	if t, ok := data.(Tabular); ok && (f == FormatTable || f == FormatWide) {
		return formatter.Format(w, t.TableData())
	}
	return formatter.Format(w, data)
}
