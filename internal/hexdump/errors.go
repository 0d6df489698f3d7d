package hexdump

import "fmt"

// MissingFileError reports a dump file that does not exist. A device's
// declared dump set is authoritative, so an absent file fails the analysis
// instead of being skipped.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("dump file does not exist: %s", e.Path)
}

// MalformedLineError reports a line that failed to parse as hexadecimal.
type MalformedLineError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("%s:%d: malformed hex line %q: %v", e.Path, e.Line, e.Text, e.Err)
}

func (e *MalformedLineError) Unwrap() error {
	return e.Err
}

// LengthMismatchError reports a dump whose total bit count differs from the
// device's declared memory size.
type LengthMismatchError struct {
	Path     string
	GotBits  int
	WantBits int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("%s: dump holds %d bits, device memory is %d bits", e.Path, e.GotBits, e.WantBits)
}
