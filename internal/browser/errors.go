package browser

import "fmt"

// SessionStartError is returned by Start when the driver or browser could not
// be brought up. It is never retried.
type SessionStartError struct {
	Stage string
	Err   error
}

func (e *SessionStartError) Error() string {
	return fmt.Sprintf("browser session start failed (%s): %v", e.Stage, e.Err)
}

func (e *SessionStartError) Unwrap() error {
	return e.Err
}
