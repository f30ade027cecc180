package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// maxEpochMillis keeps decoded instants within time.Time's nanosecond range.
const maxEpochMillis = math.MaxInt64 / 1_000_000

// Role is the primary authorization role of an identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the client-held record of the logged-in user.
type Identity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Roles       []Role    `json:"roles,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	LoginTime   Timestamp `json:"loginTime,omitzero"`
	ExpiresAt   Timestamp `json:"expiresAt,omitzero"`
}

// HasRole reports whether role matches the primary role or any entry of Roles.
func (i *Identity) HasRole(role Role) bool {
	if i == nil || role == "" {
		return false
	}
	if i.Role == role {
		return true
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the identity carries the given permission.
func (i *Identity) HasPermission(permission string) bool {
	if i == nil || permission == "" {
		return false
	}
	for _, p := range i.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate shared slices.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	if i.Roles != nil {
		c.Roles = append([]Role(nil), i.Roles...)
	}
	if i.Permissions != nil {
		c.Permissions = append([]string(nil), i.Permissions...)
	}
	return &c
}

// IdentityPatch carries a partial profile update. Nil fields are left as-is.
type IdentityPatch struct {
	ID          *string    `json:"id,omitempty"`
	Name        *string    `json:"name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Role        *Role      `json:"role,omitempty"`
	Roles       []Role     `json:"roles,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	ExpiresAt   *Timestamp `json:"expiresAt,omitzero"`
}

// Apply merges the patch into a copy of base (shallow merge, patch wins).
func (p IdentityPatch) Apply(base *Identity) *Identity {
	out := base.Clone()
	if out == nil {
		out = &Identity{}
	}
	if p.ID != nil {
		out.ID = *p.ID
	}
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.Roles != nil {
		out.Roles = append([]Role(nil), p.Roles...)
	}
	if p.Permissions != nil {
		out.Permissions = append([]string(nil), p.Permissions...)
	}
	if p.ExpiresAt != nil {
		out.ExpiresAt = *p.ExpiresAt
	}
	return out
}

// Timestamp is a point in time persisted either as an RFC3339 string or as
// epoch milliseconds. Values that cannot be decoded are treated as absent.
type Timestamp struct {
	time.Time
}

// At wraps t as a Timestamp.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// IsSet reports whether the timestamp carries a value.
func (t Timestamp) IsSet() bool {
	return !t.Time.IsZero()
}

// MarshalJSON writes RFC3339 with millisecond precision, or null when unset.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}

// UnmarshalJSON never fails: malformed input leaves the timestamp unset.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
			t.Time = parsed
			return nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 && ms <= maxEpochMillis {
			t.Time = time.UnixMilli(ms).UTC()
		}
		return nil
	}

	if ms, err := strconv.ParseFloat(string(data), 64); err == nil && ms > 0 && ms <= maxEpochMillis {
		t.Time = time.UnixMilli(int64(ms)).UTC()
	}
	return nil
}
