// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidListenPort is the sentinel error wrapped by InvalidListenPortError.
var ErrInvalidListenPort = errors.New("invalid listen port")

type (
	// ListenPort represents a TCP port for the hub to listen on.
	// Valid ports are in the range 1-65535; 0 requests an ephemeral port.
	ListenPort int

	// InvalidListenPortError is returned when a ListenPort is outside the
	// valid range (0-65535).
	InvalidListenPortError struct {
		Value ListenPort
	}
)

// Error implements the error interface.
func (e *InvalidListenPortError) Error() string {
	return fmt.Sprintf("invalid listen port %d (must be in range 0-65535)", e.Value)
}

// Unwrap returns ErrInvalidListenPort for errors.Is() compatibility.
func (e *InvalidListenPortError) Unwrap() error { return ErrInvalidListenPort }

// Validate returns an error if the ListenPort is outside the valid range.
func (p ListenPort) Validate() error {
	if p < 0 || p > 65535 {
		return &InvalidListenPortError{Value: p}
	}
	return nil
}

// IsEphemeral returns true if the port requests OS-assigned ephemeral binding.
func (p ListenPort) IsEphemeral() bool { return p == 0 }

// String returns the decimal string representation of the ListenPort.
func (p ListenPort) String() string { return strconv.Itoa(int(p)) }
