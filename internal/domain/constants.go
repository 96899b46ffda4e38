package domain

import "time"

const (
	// MaxMessageLengthVisitor is the message limit for anonymous callers.
	MaxMessageLengthVisitor = 140

	// MaxMessageLengthFree is the message limit for registered accounts.
	MaxMessageLengthFree = 280

	// MaxMessageLengthPremium is the message limit for premium accounts.
	MaxMessageLengthPremium = 100_000

	// MaxRequestBodySize is the maximum allowed request body size.
	// Set larger than the premium message limit to account for base64
	// expansion of client-encrypted payloads plus JSON overhead.
	MaxRequestBodySize = 2*MaxMessageLengthPremium + 4096

	// MinAliasLength is the minimum length for a caller-suggested alias.
	// The alias doubles as the access capability, so short values are
	// rejected outright.
	MinAliasLength = 16

	// MaxAliasAttempts bounds alias regeneration on collision before a
	// create fails.
	MaxAliasAttempts = 3

	// DefaultExpiry is the default TTL for secrets when no expiry is
	// specified.
	DefaultExpiry = 24 * time.Hour
)
