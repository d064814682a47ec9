//go:build !linux

package raspberry

import "fmt"

// openHardware fails outside of linux, only the sim backend is available there.
func openHardware(backend, _ string) (Chip, error) {
	return nil, fmt.Errorf("%q: %w", backend, ErrUnsupportedBackend)
}
