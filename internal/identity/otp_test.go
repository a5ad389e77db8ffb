package identity

import "testing"

func TestGenerateOTPCodeIsSixDigits(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateOTPCode()
		if err != nil {
			t.Fatalf("generateOTPCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6-digit code, got %q", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
	}
}

func TestMaskPhone(t *testing.T) {
	got := maskPhone("+15551234567")
	want := "****4567"
	if got != want {
		t.Fatalf("maskPhone() = %q, want %q", got, want)
	}
}

func TestIsHTTPURL(t *testing.T) {
	cases := map[string]bool{
		"https://example.com/a.png": true,
		"http://example.com":        true,
		"ftp://example.com":         false,
		"not a url":                 false,
	}
	for in, want := range cases {
		if got := isHTTPURL(in); got != want {
			t.Errorf("isHTTPURL(%q) = %v, want %v", in, got, want)
		}
	}
}
