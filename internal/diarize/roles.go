package diarize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/vintra/pkg/models"
)

// RoleMap assigns semantic speaker roles to provider diarization tags.
// Tags without an explicit entry map to Fallback.
type RoleMap struct {
	Roles    map[int]string
	Fallback string
}

// DefaultRoles is the two-speaker convention: tag 1 is the doctor, every
// other tag is the patient.
func DefaultRoles() RoleMap {
	return RoleMap{
		Roles:    map[int]string{1: models.SpeakerDoctor},
		Fallback: models.SpeakerPatient,
	}
}

// Role returns the role for tag.
func (m RoleMap) Role(tag int) string {
	if role, ok := m.Roles[tag]; ok {
		return role
	}
	if m.Fallback == "" {
		return models.SpeakerUnknown
	}
	return m.Fallback
}

var validRoles = map[string]bool{
	models.SpeakerDoctor:  true,
	models.SpeakerPatient: true,
	models.SpeakerUnknown: true,
}

// ParseRoles parses a mapping such as "1=doctor,2=patient,*=unknown".
// The "*" entry sets the fallback role. An empty string yields DefaultRoles.
func ParseRoles(s string) (RoleMap, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultRoles(), nil
	}

	m := RoleMap{Roles: make(map[int]string), Fallback: models.SpeakerUnknown}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, role, ok := strings.Cut(entry, "=")
		if !ok {
			return RoleMap{}, fmt.Errorf("speaker role entry %q: expected tag=role", entry)
		}
		key = strings.TrimSpace(key)
		role = strings.ToLower(strings.TrimSpace(role))
		if !validRoles[role] {
			return RoleMap{}, fmt.Errorf("speaker role entry %q: role must be doctor, patient or unknown", entry)
		}
		if key == "*" {
			m.Fallback = role
			continue
		}
		tag, err := strconv.Atoi(key)
		if err != nil {
			return RoleMap{}, fmt.Errorf("speaker role entry %q: tag must be an integer", entry)
		}
		m.Roles[tag] = role
	}
	return m, nil
}
