package dataset

import "fmt"

// LoadError reports an unreadable or malformed input table. It is fatal at
// startup: the dashboard cannot render without its dataset.
type LoadError struct {
	Path string
	Row  int // 1-based data row, 0 when not row specific
	Err  error
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("load dataset %s: row %d: %v", e.Path, e.Row, e.Err)
	}
	return fmt.Sprintf("load dataset %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
