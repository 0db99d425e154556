package utils

import "testing"

func TestIsValidSlug(t *testing.T) {
	valid := []string{"a", "abc", "abc-def", "a1-b2-c3", "7zip"}
	for _, s := range valid {
		if !IsValidSlug(s) {
			t.Errorf("Expected %q to be a valid slug", s)
		}
	}

	invalid := []string{"", "-abc", "abc-", "ab--cd", "ABC", "a b", "a_b", "café"}
	for _, s := range invalid {
		if IsValidSlug(s) {
			t.Errorf("Expected %q to be rejected", s)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":       "hello-world",
		"  Spaces  Around ": "spaces-around",
		"Already-a-slug":    "already-a-slug",
		"Weird!@#Chars":     "weird-chars",
		"UPPER case 123":    "upper-case-123",
	}
	for in, want := range cases {
		got := Slugify(in)
		if got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
		if got != "" && !IsValidSlug(got) {
			t.Errorf("Slugify(%q) produced invalid slug %q", in, got)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"My Library":     "My Library",
		"a/b\\c:d":       "a_b_c_d",
		"quotes\"inside": "quotes_inside",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
