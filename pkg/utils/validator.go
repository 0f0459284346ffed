package utils

import "fmt"

// MaxClaimCents is the sanity ceiling for a single claim submission.
const MaxClaimCents int64 = 10_000_000

// ValidateClaimAmount validates a claimed amount in cents
func ValidateClaimAmount(cents int64) error {
	if cents <= 0 {
		return fmt.Errorf("amount must be positive: %d", cents)
	}
	if cents > MaxClaimCents {
		return fmt.Errorf("amount exceeds maximum limit: %d", cents)
	}
	return nil
}

// ValidateOrigin validates a claim origin value
func ValidateOrigin(origin string) error {
	switch origin {
	case "WEB", "MOBILE", "IMPORT":
		return nil
	}
	return fmt.Errorf("unknown claim origin: %s", origin)
}
