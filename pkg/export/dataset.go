package export

// Dataset is the tabular content shared by the CSV and PDF renderers. Rows
// are keyed by header name so callers can assemble them independently of
// column order.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}
