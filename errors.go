package mozlog

import "fmt"

// EncodeError reports a value that could not be represented in the target
// format. The record is abandoned; nothing reaches the sink.
type EncodeError struct {
	Key string
	Err error
}

func (e *EncodeError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("mozlog: encode %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("mozlog: encode: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// IOError reports a sink write failure. The record is lost; the drain never
// retries or buffers.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return "mozlog: sink write: " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }
