package app

// ValidationError reports a client-side precondition failure (no selection,
// creating inside a special collection, missing version). Nothing was sent
// to the server.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErr(msg string) error { return &ValidationError{Msg: msg} }
