package mention

import "testing"

func TestParseUser(t *testing.T) {
	cases := []struct {
		in string
		id string
		ok bool
	}{
		{"<@123456789012345678>", "123456789012345678", true},
		{"<@!123456789012345678>", "123456789012345678", true},
		{"<#123>", "", false},
		{"plain text", "", false},
		{"<@>", "", false},
	}
	for _, c := range cases {
		id, ok := ParseUser(c.in)
		if ok != c.ok || id != c.id {
			t.Errorf("ParseUser(%q) = (%q, %v), want (%q, %v)", c.in, id, ok, c.id, c.ok)
		}
	}
}

func TestFirstChannel(t *testing.T) {
	id, ok := FirstChannel("**T5 raid**\n\n**in:** <#42> and <#43>")
	if !ok || id != "42" {
		t.Fatalf("FirstChannel = (%q, %v), want (42, true)", id, ok)
	}
	if _, ok := FirstChannel("no channels here"); ok {
		t.Fatal("FirstChannel found a channel in plain text")
	}
}

func TestRoundTrip(t *testing.T) {
	id, ok := ParseUser(User("99"))
	if !ok || id != "99" {
		t.Fatalf("ParseUser(User(99)) = (%q, %v)", id, ok)
	}
}
