package chat

import "testing"

func TestInterpolate(t *testing.T) {
	vars := map[string]any{
		"name": "Alice",
		"user": map[string]any{
			"name": "Ann",
			"address": map[string]any{
				"city": "Lisbon",
			},
		},
		"count": 3,
	}

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "no placeholders", "no placeholders"},
		{"simple", "Hello ${name}", "Hello Alice"},
		{"dotted", "Hello ${user.name}", "Hello Ann"},
		{"deep", "From ${user.address.city}", "From Lisbon"},
		{"missing top-level", "Hello ${nobody}", "Hello "},
		{"missing nested", "Hello ${user.age}", "Hello "},
		{"missing root of path", "Hello ${admin.name}", "Hello "},
		{"non-string value", "Count: ${count}", "Count: 3"},
		{"multiple", "${user.name} in ${user.address.city}", "Ann in Lisbon"},
		{"empty path", "x${}y", "xy"},
		{"path through scalar", "${name.first}", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Interpolate(tc.in, vars)
			if got != tc.want {
				t.Errorf("Interpolate(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestInterpolate_NilVars(t *testing.T) {
	if got := Interpolate("Hello ${name}", nil); got != "Hello " {
		t.Errorf("expected empty substitution with nil vars, got %q", got)
	}
}
