package session

import "github.com/nkiryanov/bookadmin/internal/models"

type State int

const (
	// Stored credential not checked yet
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// Snapshot is a consistent read of the session.
// Profile is nil unless State is StateAuthenticated
type Snapshot struct {
	State   State           `json:"state"`
	Profile *models.Profile `json:"profile,omitempty"`
	Loading bool            `json:"loading"`
}

func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated
}

// IsAdmin is true for superusers and for users with role admin.
// is_staff alone does not make an administrator
func (s Snapshot) IsAdmin() bool {
	if s.Profile == nil {
		return false
	}
	return s.Profile.IsSuperuser || s.Profile.Role == models.RoleAdmin
}

// HasPermission is true for administrators and for users with the permission listed
func (s Snapshot) HasPermission(permission string) bool {
	if s.Profile == nil {
		return false
	}
	return s.IsAdmin() || s.Profile.HasPermissionListed(permission)
}

func (s Snapshot) IsManager() bool {
	if s.Profile == nil {
		return false
	}
	return s.IsAdmin() || s.Profile.Role == models.RoleManager
}

func (s Snapshot) IsStaff() bool {
	return s.Profile != nil && s.Profile.IsStaff
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
