package security

import (
	"testing"
	"time"
)

func TestGenerateOTPFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP returned error: %v", err)
		}
		if len(code) != OTPLength {
			t.Fatalf("expected %d digits, got %q", OTPLength, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit character in code %q", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatalf("20 generated codes were all identical")
	}
}

func TestCheckOTP(t *testing.T) {
	hash, err := HashOTP("042619")
	if err != nil {
		t.Fatalf("HashOTP returned error: %v", err)
	}
	now := time.Now().UTC()
	expires := now.Add(OTPValidity)

	if !CheckOTP(&hash, &expires, "042619", now) {
		t.Fatalf("valid code within expiry was rejected")
	}
	if CheckOTP(&hash, &expires, "000000", now) {
		t.Fatalf("wrong code was accepted")
	}
	if CheckOTP(&hash, &expires, "042619", expires.Add(time.Second)) {
		t.Fatalf("expired code was accepted")
	}
}

func TestCheckOTPFailsClosed(t *testing.T) {
	hash, err := HashOTP("123456")
	if err != nil {
		t.Fatalf("HashOTP returned error: %v", err)
	}
	expires := time.Now().UTC().Add(OTPValidity)
	now := time.Now().UTC()

	if CheckOTP(nil, &expires, "123456", now) {
		t.Fatalf("nil hash was accepted")
	}
	if CheckOTP(&hash, nil, "123456", now) {
		t.Fatalf("nil expiry was accepted")
	}
}
