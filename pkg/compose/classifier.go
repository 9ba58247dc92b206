package compose

import (
	"maps"
	"slices"
	"time"
)

// Reserved auto-fill variable names, in canonical order.
const (
	VarName  = "name"
	VarEmail = "email"
	VarDate  = "date"
)

// ReservedNames is the fixed, non-configurable auto-fill set. A template that uses
// one of these names for another purpose is still auto-filled.
var ReservedNames = []string{VarName, VarEmail, VarDate}

// DateLayout is the format of the auto-filled date.
const DateLayout = "2006-01-02"

// IsReserved reports whether name is auto-filled by the system.
func IsReserved(name string) bool {
	return slices.Contains(ReservedNames, name)
}

// Classification partitions a template's variables.
type Classification struct {
	// AutoFill follows the order of ReservedNames.
	AutoFill []string
	// UserFill follows the template's discovery order.
	UserFill []string
}

// Classify splits names into auto-fill and user-fill variables.
func Classify(names []string) Classification {
	c := Classification{AutoFill: []string{}, UserFill: []string{}}
	for _, r := range ReservedNames {
		if slices.Contains(names, r) {
			c.AutoFill = append(c.AutoFill, r)
		}
	}
	for _, n := range names {
		if !IsReserved(n) && !slices.Contains(c.UserFill, n) {
			c.UserFill = append(c.UserFill, n)
		}
	}
	return c
}

// Bindings maps variable names to their values.
type Bindings map[string]string

// Clone returns a shallow copy; nil stays nil.
func (b Bindings) Clone() Bindings {
	return maps.Clone(b)
}

// AutoFill returns the system-supplied bindings for id at now.
func AutoFill(id Identity, now time.Time) Bindings {
	return Bindings{
		VarName:  id.Name,
		VarEmail: id.Email,
		VarDate:  now.Format(DateLayout),
	}
}
