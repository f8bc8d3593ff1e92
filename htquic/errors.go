package htquic

import (
	"errors"
	"fmt"
)

// ErrProofMismatch is returned from [*Client.Leaf]
// when the server's proof or data does not verify against the trusted root.
var ErrProofMismatch = errors.New("leaf proof does not match root")

// StatusError is returned from [*Client] methods
// when the server answers with a status other than [StatusOK].
type StatusError struct {
	Status  Status
	Message string
}

func (e StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded with status %q", e.Status)
	}
	return fmt.Sprintf("server responded with status %q: %s", e.Status, e.Message)
}
