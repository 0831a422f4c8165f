//go:build !((linux && cgo) || windows || darwin)

// ABOUTME: Device output stubs for builds without cgo
// ABOUTME: The oto and beep backends need native sound libraries
package output

import "fmt"

// NewOto reports that device output is not built in
func NewOto(config OtoConfig) (Output, error) {
	return nil, fmt.Errorf("%w: oto requires cgo on this platform", ErrUnavailable)
}

// NewBeep reports that device output is not built in
func NewBeep(config BeepConfig) (Output, error) {
	return nil, fmt.Errorf("%w: beep requires cgo on this platform", ErrUnavailable)
}
