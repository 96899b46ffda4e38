package domain

import "time"

// SecretType classifies the payload of a secret.
type SecretType string

const (
	SecretTypeText    SecretType = "text"
	SecretTypeURL     SecretType = "url"
	SecretTypeNeogram SecretType = "neogram"
)

// Valid reports whether t is one of the known secret types.
func (t SecretType) Valid() bool {
	switch t {
	case SecretTypeText, SecretTypeURL, SecretTypeNeogram:
		return true
	}
	return false
}

// Tier is the caller's account tier, which determines size limits.
type Tier string

const (
	TierVisitor Tier = "visitor"
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// MaxMessageLength returns the message size limit for the tier,
// enforced on the plaintext before encryption. Unknown tiers fall
// back to the visitor limit.
func (t Tier) MaxMessageLength() int {
	switch t {
	case TierFree:
		return MaxMessageLengthFree
	case TierPremium:
		return MaxMessageLengthPremium
	default:
		return MaxMessageLengthVisitor
	}
}

// ReceiptChannel identifies how a read receipt is delivered.
type ReceiptChannel string

const (
	ReceiptChannelEmail   ReceiptChannel = "email"
	ReceiptChannelSMS     ReceiptChannel = "sms"
	ReceiptChannelWebhook ReceiptChannel = "webhook"
)

// Secret is the durable record, keyed by alias. All sensitive fields
// (Message, NeogramDestructionMessage, the Receipt* contacts) hold
// ciphertext; plaintext never reaches the store.
type Secret struct {
	Alias                       string     `json:"alias"`
	SecretType                  SecretType `json:"secret_type"`
	Message                     []byte     `json:"message"`
	IsEncryptedWithUserPassword bool       `json:"is_encrypted_with_user_password"`

	NeogramDestructionMessage []byte `json:"neogram_destruction_message,omitempty"`
	NeogramDestructionTimeout int    `json:"neogram_destruction_timeout,omitempty"`

	ReceiptEmail       []byte `json:"receipt_email,omitempty"`
	ReceiptPhoneNumber []byte `json:"receipt_phone_number,omitempty"`
	ReceiptWebhookID   []byte `json:"receipt_webhook_id,omitempty"`

	AccountID string    `json:"account_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TypeCounters is a per-type breakdown of a counter.
type TypeCounters struct {
	Text    int64 `json:"text"`
	URL     int64 `json:"url"`
	Neogram int64 `json:"neogram"`
}

// Stats holds the aggregate counters. Counters only ever go up; they
// carry no link back to individual secrets.
type Stats struct {
	TotalSecretsCount     int64        `json:"total_secrets_count"`
	SecretsCount          TypeCounters `json:"secrets_count"`
	TotalSecretsViewCount int64        `json:"total_secrets_view_count"`
	SecretsViewCount      TypeCounters `json:"secrets_view_count"`
}
