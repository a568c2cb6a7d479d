package utils

import (
	"fmt"
)

var (
	// No coordinator endpoint could be resolved from the rendezvous file.
	ErrDiscovery = fmt.Errorf("Coordinator discovery failed")

	// The coordinator could not be reached after bounded retries.
	ErrConnection = fmt.Errorf("Coordinator unreachable")

	// Complete or fail referenced a job that is not currently claimed.
	ErrUnknownJob = fmt.Errorf("Unknown or unclaimed job")

	// Submit was attempted after the coordinator began draining.
	ErrDraining = fmt.Errorf("Coordinator is draining")

	// A function payload referenced a name missing from the registry.
	ErrUnknownPayload = fmt.Errorf("Unknown payload kind")

	ErrBadRequest = fmt.Errorf("Bad request")
)

type DetailedError interface {
	error
	Details() string
}
