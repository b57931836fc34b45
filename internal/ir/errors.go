package ir

import (
	"errors"
	"fmt"
)

// PortError reports an invalid port declaration.
type PortError struct {
	Port      string
	Side      Side
	Duplicate bool
	Message   string
}

func (e *PortError) Error() string {
	if e.Port == "" {
		return "signature: " + e.Message
	}
	return fmt.Sprintf("signature: port %q: %s", e.Port, e.Message)
}

// IsDuplicatePort reports whether err is a duplicate port name error.
func IsDuplicatePort(err error) bool {
	var pe *PortError
	return errors.As(err, &pe) && pe.Duplicate
}
