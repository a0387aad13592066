package main

import (
	"fmt"
	"strings"
)

// Role is the part a form field plays in a login submission.
type Role int

const (
	RoleOther Role = iota
	RoleUsername
	RolePassword
)

func (r Role) String() string {
	switch r {
	case RoleUsername:
		return "username"
	case RolePassword:
		return "password"
	default:
		return "other"
	}
}

// Field is one named input of the login form with its template value.
type Field struct {
	Name  string
	Type  string
	Value string
	Role  Role
}

// Form is the submission contract inferred from a login page. It is built
// once and shared read-only between workers; Values hands out private copies.
type Form struct {
	Index   int
	PageURL string
	Action  string
	Method  string
	Fields  []Field
	CSRF    *Field
}

// Values returns a fresh copy of the field template in document order.
func (f *Form) Values() []Field {
	out := make([]Field, len(f.Fields))
	copy(out, f.Fields)
	return out
}

// Field returns the template entry with the given name.
func (f *Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldsWithRole lists the names of fields carrying the given role.
func (f *Form) FieldsWithRole(role Role) []string {
	var names []string
	for _, field := range f.Fields {
		if field.Role == role {
			names = append(names, field.Name)
		}
	}
	return names
}

func (f *Form) Description() string {
	parts := []string{
		fmt.Sprintf("Action: %s", f.Action),
		fmt.Sprintf("Method: %s", f.Method),
	}

	if users := f.FieldsWithRole(RoleUsername); len(users) > 0 {
		parts = append(parts, fmt.Sprintf("Username: %s", strings.Join(users, "|")))
	}

	if passwords := f.FieldsWithRole(RolePassword); len(passwords) > 0 {
		parts = append(parts, fmt.Sprintf("Password: %s", strings.Join(passwords, "|")))
	}

	if f.CSRF != nil {
		parts = append(parts, fmt.Sprintf("CSRF: %s", f.CSRF.Name))
	}

	return strings.Join(parts, ", ")
}

func (f *Form) IsLoginForm() bool {
	return f.HasUsernameField() && f.HasPasswordField()
}

func (f *Form) HasUsernameField() bool {
	return len(f.FieldsWithRole(RoleUsername)) > 0
}

func (f *Form) HasPasswordField() bool {
	return len(f.FieldsWithRole(RolePassword)) > 0
}
