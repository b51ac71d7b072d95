package client

import "fmt"

// TransportError means the remote service could not be reached at all:
// connection failure, DNS, or timeout.
type TransportError struct {
	Service string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError means the remote service answered but reported an explicit
// failure, either an error status or a success=false payload.
type ServiceError struct {
	Service string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}
