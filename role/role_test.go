package role

import "testing"

func TestCanAccessReflexiveAndMonotonic(t *testing.T) {
	ordered := []Role{Guest, Customer, Staff, Manager, Admin}

	for i, held := range ordered {
		for j, required := range ordered {
			got := held.CanAccess(required)
			want := i >= j
			if got != want {
				t.Errorf("%s.CanAccess(%s) = %v, want %v", held, required, got, want)
			}
		}
	}
}

func TestCanAccessInvalidRoles(t *testing.T) {
	invalid := Role(99)

	if invalid.CanAccess(Guest) {
		t.Error("invalid role must not access anything")
	}
	if Admin.CanAccess(invalid) {
		t.Error("no role can satisfy an invalid requirement")
	}
	if invalid.Rank() != -1 {
		t.Errorf("invalid role rank = %d, want -1", invalid.Rank())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		want    Role
		wantErr bool
	}{
		{name: "guest", want: Guest},
		{name: "customer", want: Customer},
		{name: "staff", want: Staff},
		{name: "manager", want: Manager},
		{name: "admin", want: Admin},
		{name: "root", wantErr: true},
		{name: "", wantErr: true},
		{name: "Admin", wantErr: true},
	}

	for _, tc := range tests {
		got, err := Parse(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, r := range []Role{Guest, Customer, Staff, Manager, Admin} {
		parsed, err := Parse(r.String())
		if err != nil {
			t.Fatalf("Parse(%s): %v", r, err)
		}
		if parsed != r {
			t.Fatalf("round trip %s -> %s", r, parsed)
		}
	}
}
