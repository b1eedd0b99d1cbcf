package model

import (
	"fmt"
	"strings"
)

// TeamMember is a person tasks can be assigned to
type TeamMember struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// FirstName returns the first word of the member's name
func (m TeamMember) FirstName() string {
	fields := strings.Fields(m.Name)
	if len(fields) == 0 {
		return m.Name
	}
	return fields[0]
}

// Validate checks required member fields
func (m *TeamMember) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("member name is required")
	}
	if m.Email != "" && !strings.Contains(m.Email, "@") {
		return fmt.Errorf("invalid email %q", m.Email)
	}
	return nil
}

// Department groups tasks by organisational unit
type Department struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DefaultDepartmentColor is used when none is given
const DefaultDepartmentColor = "#3B82F6"

// Validate checks required department fields
func (d *Department) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("department name is required")
	}
	return nil
}
