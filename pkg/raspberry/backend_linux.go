//go:build linux

package raspberry

import "fmt"

func openHardware(backend, chip string) (Chip, error) {
	switch backend {
	case BackendGpiod:
		return OpenGpiod(chip)
	case BackendGpiomem:
		return OpenGpiomem()
	case BackendRpio:
		return OpenRpio()
	default:
		return nil, fmt.Errorf("%q: %w", backend, ErrUnsupportedBackend)
	}
}
