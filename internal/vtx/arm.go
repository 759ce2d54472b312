package vtx

import "sync/atomic"

// ArmSource reports whether the vehicle is armed.
// The value is assumed to be debounced upstream.
type ArmSource interface {
	IsArmed() bool
}

// ArmFlag is an ArmSource backed by an atomic boolean.
// The zero value is disarmed and ready to use.
type ArmFlag struct {
	armed atomic.Bool
}

// IsArmed implements ArmSource.
func (f *ArmFlag) IsArmed() bool {
	return f.armed.Load()
}

// Set updates the arm state.
func (f *ArmFlag) Set(armed bool) {
	f.armed.Store(armed)
}

// ArmFunc adapts a plain function to ArmSource.
type ArmFunc func() bool

// IsArmed implements ArmSource.
func (fn ArmFunc) IsArmed() bool {
	return fn()
}
