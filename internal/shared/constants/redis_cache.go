package constants

import (
	"fmt"
	"time"
)

// Centralized Redis cache keys and TTLs.
// Pattern: gatepass:{module}:{operation}:{identifier}

// Cache TTLs
const (
	TTL_PLACE_DETAIL  = 10 * time.Minute // place details change rarely outside settlement
	TTL_PLACE_LISTING = 5 * time.Minute  // public browse listings
	TTL_PASS_LOOKUP   = 2 * time.Minute  // QR token lookups at the gate
)

// Key prefixes
const (
	KEY_PLACE_DETAIL  = "gatepass:places:detail:"
	KEY_PLACE_LISTING = "gatepass:places:list:"
	KEY_PASS_QR       = "gatepass:passes:qr:"

	PATTERN_INVALIDATE_PLACE_ALL = "gatepass:places:*"
)

// PlaceDetailKey builds the cache key for one place's details.
func PlaceDetailKey(placeID string) string {
	return KEY_PLACE_DETAIL + placeID
}

// PlaceListingKey builds the cache key for a public listing page.
func PlaceListingKey(page, limit int, search string) string {
	return fmt.Sprintf("%s%d:%d:%s", KEY_PLACE_LISTING, page, limit, search)
}

// PassQRKey builds the cache key for a QR token lookup.
func PassQRKey(token string) string {
	return KEY_PASS_QR + token
}
