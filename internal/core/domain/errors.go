package domain

import "fmt"

// RegistryError marks a malformed or duplicate registry entry. Fatal to the
// whole device load: no partial mapping table is ever published.
type RegistryError struct {
	Row       int
	PointName string
	Reason    string
}

func (e *RegistryError) Error() string {
	if e.PointName != "" {
		return fmt.Sprintf("registry row %d (%s): %s", e.Row, e.PointName, e.Reason)
	}
	return fmt.Sprintf("registry row %d: %s", e.Row, e.Reason)
}

// UnknownPointError is a lookup or write against an undeclared point.
type UnknownPointError struct {
	PointName   string
	EntityID    string
	EntityPoint string
}

func (e *UnknownPointError) Error() string {
	if e.PointName != "" {
		return fmt.Sprintf("unknown point %q", e.PointName)
	}
	return fmt.Sprintf("no point declared for entity %q point %q", e.EntityID, e.EntityPoint)
}

// ReadOnlyPointError is a write against a non-writable or intrinsically
// read-only point.
type ReadOnlyPointError struct {
	PointName string
}

func (e *ReadOnlyPointError) Error() string {
	return fmt.Sprintf("point %q is read only", e.PointName)
}

// ValidationError is a write value out of the declared range or type.
type ValidationError struct {
	PointName string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for point %q: %s", e.PointName, e.Reason)
}

// ConversionError is an unrecognized raw value seen during decode, e.g. an
// unknown thermostat mode string.
type ConversionError struct {
	EntityID    string
	EntityPoint string
	Raw         any
	Reason      string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %v from %s/%s: %s", e.Raw, e.EntityID, e.EntityPoint, e.Reason)
}
