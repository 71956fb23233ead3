package email

import "testing"

func TestDisplayNameFromEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"jane.doe@example.com", "Jane Doe"},
		{"alice@example.com", "Alice"},
		{"bob_van-dam@example.com", "Bob Van Dam"},
		{"x+tag@example.com", "X Tag"},
		{"...@example.com", "User"},
		{"@example.com", "User"},
		{"", "User"},
	}
	for _, c := range cases {
		if got := DisplayNameFromEmail(c.in); got != c.want {
			t.Errorf("DisplayNameFromEmail(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
