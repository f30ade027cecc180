package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestamp_LenientDecoding(t *testing.T) {
	want := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	cases := []struct {
		name  string
		input string
		set   bool
	}{
		{name: "rfc3339", input: `"2026-03-04T05:06:07Z"`, set: true},
		{name: "epoch millis", input: `1772600767000`, set: true},
		{name: "epoch millis string", input: `"1772600767000"`, set: true},
		{name: "null", input: `null`},
		{name: "garbage string", input: `"soon"`},
		{name: "object", input: `{"when":"later"}`},
		{name: "negative", input: `-5`},
		{name: "out of range", input: `1e30`},
		{name: "out of range string", input: `"9223372036854775807"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var id Identity
			raw := `{"id":"1","expiresAt":` + tc.input + `}`
			if err := json.Unmarshal([]byte(raw), &id); err != nil {
				t.Fatalf("decoding must not fail, got %v", err)
			}
			if id.ExpiresAt.IsSet() != tc.set {
				t.Fatalf("IsSet = %v, want %v", id.ExpiresAt.IsSet(), tc.set)
			}
			if tc.set && !id.ExpiresAt.Time.Equal(want) {
				t.Fatalf("decoded %v, want %v", id.ExpiresAt.Time, want)
			}
		})
	}
}

func TestIdentity_OmitsUnsetTimestamps(t *testing.T) {
	raw, err := json.Marshal(Identity{ID: "1", Role: RoleUser})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	if _, ok := m["expiresAt"]; ok {
		t.Fatalf("unset expiry must be omitted: %s", raw)
	}
}

func TestIdentityPatch_Apply(t *testing.T) {
	base := &Identity{ID: "1", Name: "A", Email: "a@b.com", Role: RoleUser, Permissions: []string{"p1"}}
	name := "B"
	role := RoleAdmin

	out := IdentityPatch{Name: &name, Role: &role}.Apply(base)

	if out.Name != "B" || out.Role != RoleAdmin {
		t.Fatalf("patch not applied: %+v", out)
	}
	if out.Email != "a@b.com" || out.ID != "1" || !out.HasPermission("p1") {
		t.Fatalf("omitted fields not retained: %+v", out)
	}
	if base.Name != "A" {
		t.Fatalf("base mutated: %+v", base)
	}
}

func TestIdentity_HasRole(t *testing.T) {
	id := &Identity{Role: RoleUser, Roles: []Role{"manager"}}
	if !id.HasRole(RoleUser) || !id.HasRole("manager") {
		t.Fatalf("expected primary and secondary roles")
	}
	if id.HasRole(RoleAdmin) || id.HasRole("") {
		t.Fatalf("unexpected role match")
	}
	var none *Identity
	if none.HasRole(RoleUser) || none.HasPermission("x") {
		t.Fatalf("nil identity has no roles")
	}
}
