package identity

import "testing"

func TestComputeSafetyNumberIsOrderIndependent(t *testing.T) {
	a := safetyNumberParty{phone: "+15551234567", identityKey: []byte("identity-key-a")}
	b := safetyNumberParty{phone: "+15559876543", identityKey: []byte("identity-key-b")}

	forward := computeSafetyNumber(a, b)
	backward := computeSafetyNumber(b, a)
	if forward != backward {
		t.Fatalf("computeSafetyNumber not order-independent: %q vs %q", forward, backward)
	}
	if len(forward) != 60 {
		t.Fatalf("expected 60-digit code, got %d digits", len(forward))
	}
	for _, c := range forward {
		if c < '0' || c > '9' {
			t.Fatalf("expected numeric code, got %q", forward)
		}
	}
}

func TestComputeSafetyNumberChangesWithIdentityKey(t *testing.T) {
	a := safetyNumberParty{phone: "+15551234567", identityKey: []byte("identity-key-a")}
	b := safetyNumberParty{phone: "+15559876543", identityKey: []byte("identity-key-b")}
	bRotated := safetyNumberParty{phone: "+15559876543", identityKey: []byte("identity-key-b-rotated")}

	before := computeSafetyNumber(a, b)
	after := computeSafetyNumber(a, bRotated)
	if before == after {
		t.Fatalf("expected safety number to change after identity key rotation")
	}
}

func TestFormatSafetyNumberSplitsIntoTwoRows(t *testing.T) {
	code := "123456789012345678901234567890123456789012345678901234567890"
	formatted := FormatSafetyNumber(code)
	want := "12345 67890 12345 67890 12345 67890\n12345 67890 12345 67890 12345 67890"
	if formatted != want {
		t.Fatalf("FormatSafetyNumber() = %q, want %q", formatted, want)
	}
}

func TestFormatSafetyNumberPassesThroughWrongLength(t *testing.T) {
	if got := FormatSafetyNumber("short"); got != "short" {
		t.Fatalf("FormatSafetyNumber(short) = %q, want unchanged", got)
	}
}
