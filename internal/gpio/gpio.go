// Package gpio drives the light controlled by proximity state.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Light switches the light on and off.
type Light interface {
	// Set drives the light on (true) or off (false).
	Set(on bool) error

	// Close switches the light off and releases GPIO resources.
	Close() error
}

// DefaultPinLight is the BCM pin wired to the light driver's enable input.
const DefaultPinLight = 17
