package whatsapp

import (
	"errors"
	"fmt"
	"testing"

	"go.mau.fi/whatsmeow"
)

func TestIsRateLimit(t *testing.T) {
	if !IsRateLimit(whatsmeow.ErrIQRateOverLimit) {
		t.Fatalf("IsRateLimit(ErrIQRateOverLimit) = false")
	}
	if !IsRateLimit(fmt.Errorf("info query failed: %w", whatsmeow.ErrIQRateOverLimit)) {
		t.Fatalf("IsRateLimit should see through wrapped errors")
	}
	if IsRateLimit(errors.New("item-not-found")) {
		t.Fatalf("IsRateLimit(item-not-found) = true")
	}
	if IsRateLimit(nil) {
		t.Fatalf("IsRateLimit(nil) = true")
	}
}
