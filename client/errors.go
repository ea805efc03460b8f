package client

// ValidationError is a local, blocking, user-facing failure: the submission
// never leaves the device and no network call is made. The message is shown
// in an alert as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
