package services

import (
	"fmt"
	"reflect"
	"strings"
)

// Service is a registrable unit of application-level functionality.
type Service interface {
	// GetPriority controls startup and update ordering.
	GetPriority() Priority
	// DoAutoStart reports whether the service wants to be started during bootstrap.
	DoAutoStart() bool
	// OnStart is called when the service starts.
	OnStart()
	// OnStop is called when the service stops.
	OnStop()
	// OnPause is called when the service pauses (true) or resumes (false).
	OnPause(paused bool)
	// Update is called once per tick while the service is running.
	Update()
}

// Named is implemented by services that want a display name other than
// their type name.
type Named interface {
	Name() string
}

// Priority orders service startup and update dispatch. Lower values sort first.
type Priority int

const (
	VeryHigh Priority = iota
	High
	Normal
	Low
	VeryLow
)

var priorityNames = [...]string{"very_high", "high", "normal", "low", "very_low"}

// String returns the snake_case name of the priority.
func (p Priority) String() string {
	if p < VeryHigh || p > VeryLow {
		return fmt.Sprintf("priority(%d)", int(p))
	}
	return priorityNames[p]
}

// ParsePriority parses a priority name. Dashes, spaces and case are ignored,
// so "VeryHigh", "very-high" and "very_high" are equivalent.
func ParsePriority(s string) (Priority, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	for i, name := range priorityNames {
		if strings.ReplaceAll(name, "_", "") == norm {
			return Priority(i), nil
		}
	}
	return Normal, fmt.Errorf("unknown priority %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// keyOf returns the identity key of a service: its concrete dynamic type.
func keyOf(svc Service) reflect.Type {
	return reflect.TypeOf(svc)
}

// NameOf returns the display name of a service.
func NameOf(svc Service) string {
	if n, ok := svc.(Named); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return typeName(keyOf(svc))
}

// typeName returns the bare type name, without package path or pointer markers.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}
