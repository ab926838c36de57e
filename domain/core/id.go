package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier.
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation.
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation.
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty.
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types.
type (
	// PumpID identifies a physical pump asset; mirrors Config.PUMP_ID.
	PumpID ID
	// RunID correlates one pipeline invocation (a single batch decision) end to end:
	// audit row, incident report, and any notification share the same RunID.
	RunID ID
	// IncidentID identifies a single shutdown/trip event in the digital twin.
	IncidentID ID
)

func (id PumpID) String() string      { return ID(id).String() }
func (id RunID) String() string       { return ID(id).String() }
func (id IncidentID) String() string  { return ID(id).String() }
func (id PumpID) IsEmpty() bool       { return ID(id).IsEmpty() }

// ParsePumpID parses a string into a PumpID, rejecting blank values.
func ParsePumpID(s string) (PumpID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("pump ID cannot be empty")
	}
	return PumpID(s), nil
}

// NewRunID mints a fresh, time-ordered RunID.
func NewRunID() RunID { return RunID(NewID()) }

// NewIncidentID mints a fresh, time-ordered IncidentID.
func NewIncidentID() IncidentID { return IncidentID(NewID()) }
