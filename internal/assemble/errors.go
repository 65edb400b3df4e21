package assemble

import "fmt"

// Error locates a failure within the document. Paragraph is zero when the
// failure is not tied to a single paragraph. Chapter and Paragraph are
// numbered from 1.
type Error struct {
	Chapter   int
	Paragraph int
	Err       error
}

func (e *Error) Error() string {
	if e.Paragraph == 0 {
		return fmt.Sprintf("chapter %d: %v", e.Chapter, e.Err)
	}
	return fmt.Sprintf("chapter %d, paragraph %d: %v", e.Chapter, e.Paragraph, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
