package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOTPEmail(t *testing.T) {
	subject, body := OTPEmail("042619", 10*time.Minute)
	if subject == "" {
		t.Fatalf("empty subject")
	}
	if !strings.Contains(body, "042619") {
		t.Fatalf("body does not contain the code")
	}
	if !strings.Contains(body, "10 minutes") {
		t.Fatalf("body does not state the validity window")
	}
}

func TestAlertEmail(t *testing.T) {
	subject, body := AlertEmail(TriggeredAlert{
		CoinID:       "bitcoin",
		Symbol:       "btc",
		TargetPrice:  decimal.RequireFromString("65000"),
		CurrentPrice: decimal.RequireFromString("65123.45"),
		TriggeredAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	})
	if !strings.Contains(subject, "BTC") {
		t.Fatalf("subject does not name the symbol: %q", subject)
	}
	for _, want := range []string{"bitcoin", "BTC", "$65000", "$65123.45"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}
