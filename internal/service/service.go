// Package service implements the secret lifecycle: creation with
// encryption at rest and atomic one-time consumption. It orchestrates
// the store, the crypto layer, the stats counters and the receipt
// dispatcher; all cross-request safety is delegated to the store's
// atomic pop and the counters' atomic increments.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"secretlink/internal/domain"
	"secretlink/internal/receipt"
	"secretlink/internal/utility"
)

// CreateInput is the create request after transport decoding. Message
// may already be ciphertext from the client-side password layer; that
// is opaque here and the server encrypts on top regardless.
type CreateInput struct {
	SecretType                  domain.SecretType
	Message                     string
	IsEncryptedWithUserPassword bool

	// Alias is an optional caller-suggested token; server-generated
	// when empty.
	Alias string

	ReceiptEmail       string
	ReceiptPhoneNumber string
	ReceiptWebhookID   string

	NeogramDestructionMessage string
	NeogramDestructionTimeout int

	// Expiry is one of the public labels (1h, 6h, 1d, 3d); empty means
	// the default.
	Expiry string

	Tier      domain.Tier
	AccountID string
	Locale    string
}

// CreateOutput is returned on successful creation. The caller builds
// and distributes the retrieval link from the alias.
type CreateOutput struct {
	Alias     string
	ExpiresAt time.Time
}

// ConsumePayload is the decrypted result of a consume. After it is
// returned, no storage retains any trace of the secret.
type ConsumePayload struct {
	SecretType                  domain.SecretType
	Message                     string
	IsEncryptedWithUserPassword bool
	NeogramDestructionMessage   string
	NeogramDestructionTimeout   int
}

// Service is the lifecycle engine.
type Service struct {
	repo       domain.SecretRepository
	stats      domain.StatsRepository
	crypto     *utility.Crypto
	dispatcher receipt.Dispatcher
	logger     *zap.Logger

	dispatchTimeout time.Duration
}

func New(
	repo domain.SecretRepository,
	stats domain.StatsRepository,
	crypto *utility.Crypto,
	dispatcher receipt.Dispatcher,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:            repo,
		stats:           stats,
		crypto:          crypto,
		dispatcher:      dispatcher,
		logger:          logger,
		dispatchTimeout: 10 * time.Second,
	}
}

// Create validates the input, encrypts the sensitive fields and
// persists the record. Counter increments are best-effort and never
// fail the create.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateOutput, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	ttl := domain.DefaultExpiry
	if in.Expiry != "" {
		var ok bool
		ttl, ok = utility.ParseExpiry(in.Expiry)
		if !ok {
			return nil, domain.NewValidationError("expiry", "must be one of: 1h, 6h, 1d, 3d")
		}
	}

	record, err := s.buildRecord(in)
	if err != nil {
		return nil, err
	}

	// Caller-suggested aliases fail on collision; generated ones are
	// retried with a fresh token a bounded number of times.
	attempts := domain.MaxAliasAttempts
	if in.Alias != "" {
		record.Alias = in.Alias
		attempts = 1
	}

	var putErr error
	for i := 0; i < attempts; i++ {
		if in.Alias == "" {
			record.Alias = uuid.NewString()
		}
		putErr = s.repo.Put(ctx, record, ttl)
		if putErr == nil || !errors.Is(putErr, domain.ErrDuplicateAlias) {
			break
		}
	}
	if putErr != nil {
		if errors.Is(putErr, domain.ErrDuplicateAlias) {
			return nil, putErr
		}
		return nil, fmt.Errorf("create secret: %w", putErr)
	}

	if err := s.stats.IncrementCreated(ctx, in.SecretType, in.AccountID); err != nil {
		s.logger.Warn("creation counter increment failed", zap.Error(err))
	}

	return &CreateOutput{
		Alias:     record.Alias,
		ExpiresAt: record.CreatedAt.Add(ttl),
	}, nil
}

// Consume atomically pops the record for alias, decrypts it and
// returns the plaintext payload. The first successful call destroys
// the record; every later call, and any call for an alias that never
// existed or expired, gets domain.ErrNotFound with no distinction.
// locale selects the receipt template language.
func (s *Service) Consume(ctx context.Context, alias, locale string) (*ConsumePayload, error) {
	record, err := s.repo.PopByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}

	message, err := s.crypto.Decrypt(record.Message)
	if err != nil {
		s.logger.Error("stored message failed to decrypt",
			zap.String("alias", alias), zap.Error(err))
		return nil, err
	}

	payload := &ConsumePayload{
		SecretType:                  record.SecretType,
		Message:                     string(message),
		IsEncryptedWithUserPassword: record.IsEncryptedWithUserPassword,
	}

	if record.SecretType == domain.SecretTypeNeogram {
		destruction, err := s.crypto.Decrypt(record.NeogramDestructionMessage)
		if err != nil {
			s.logger.Error("destruction message failed to decrypt",
				zap.String("alias", alias), zap.Error(err))
			return nil, err
		}
		payload.NeogramDestructionMessage = string(destruction)
		payload.NeogramDestructionTimeout = record.NeogramDestructionTimeout
	}

	if err := s.stats.IncrementViewed(ctx, record.SecretType, record.AccountID); err != nil {
		s.logger.Warn("view counter increment failed", zap.Error(err))
	}

	s.dispatchReceipt(record, locale)

	return payload, nil
}

// Stats returns the aggregate counters, global when accountID is
// empty.
func (s *Service) Stats(ctx context.Context, accountID string) (*domain.Stats, error) {
	return s.stats.Get(ctx, accountID)
}

// dispatchReceipt fires the read receipt in a detached goroutine. It
// runs on its own context: the record is already gone, so a cancelled
// request must not cancel the notification. Failures are logged by the
// dispatcher and swallowed here.
func (s *Service) dispatchReceipt(record *domain.Secret, locale string) {
	channel, contact := receiptChannel(record)
	if channel == "" {
		return
	}

	target, err := s.crypto.Decrypt(contact)
	if err != nil {
		s.logger.Error("receipt contact failed to decrypt",
			zap.String("alias", record.Alias), zap.Error(err))
		return
	}

	r := receipt.Receipt{
		Channel: channel,
		Target:  string(target),
		Alias:   record.Alias,
		Locale:  locale,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.dispatchTimeout)
		defer cancel()
		_ = s.dispatcher.Dispatch(ctx, r)
	}()
}

// receiptChannel picks the one meaningful channel on a record.
func receiptChannel(record *domain.Secret) (domain.ReceiptChannel, []byte) {
	switch {
	case len(record.ReceiptEmail) > 0:
		return domain.ReceiptChannelEmail, record.ReceiptEmail
	case len(record.ReceiptPhoneNumber) > 0:
		return domain.ReceiptChannelSMS, record.ReceiptPhoneNumber
	case len(record.ReceiptWebhookID) > 0:
		return domain.ReceiptChannelWebhook, record.ReceiptWebhookID
	}
	return "", nil
}

func (s *Service) buildRecord(in CreateInput) (*domain.Secret, error) {
	message, err := s.crypto.Encrypt([]byte(in.Message))
	if err != nil {
		return nil, fmt.Errorf("encrypt message: %w", err)
	}

	record := &domain.Secret{
		SecretType:                  in.SecretType,
		Message:                     message,
		IsEncryptedWithUserPassword: in.IsEncryptedWithUserPassword,
		AccountID:                   in.AccountID,
		CreatedAt:                   time.Now().UTC(),
	}

	if in.SecretType == domain.SecretTypeNeogram {
		destruction, err := s.crypto.Encrypt([]byte(in.NeogramDestructionMessage))
		if err != nil {
			return nil, fmt.Errorf("encrypt destruction message: %w", err)
		}
		record.NeogramDestructionMessage = destruction
		record.NeogramDestructionTimeout = in.NeogramDestructionTimeout
	}

	if in.ReceiptEmail != "" {
		if record.ReceiptEmail, err = s.crypto.Encrypt([]byte(in.ReceiptEmail)); err != nil {
			return nil, fmt.Errorf("encrypt receipt email: %w", err)
		}
	}
	if in.ReceiptPhoneNumber != "" {
		if record.ReceiptPhoneNumber, err = s.crypto.Encrypt([]byte(in.ReceiptPhoneNumber)); err != nil {
			return nil, fmt.Errorf("encrypt receipt phone number: %w", err)
		}
	}
	if in.ReceiptWebhookID != "" {
		if record.ReceiptWebhookID, err = s.crypto.Encrypt([]byte(in.ReceiptWebhookID)); err != nil {
			return nil, fmt.Errorf("encrypt receipt webhook id: %w", err)
		}
	}

	return record, nil
}

func validate(in CreateInput) error {
	if !in.SecretType.Valid() {
		return domain.NewValidationError("secretType", "must be one of: text, url, neogram")
	}
	if in.Message == "" {
		return domain.NewValidationError("message", "is required")
	}
	if limit := in.Tier.MaxMessageLength(); len(in.Message) > limit {
		return domain.NewValidationError("message",
			fmt.Sprintf("exceeds the %d character limit", limit))
	}

	if in.Alias != "" && len(in.Alias) < domain.MinAliasLength {
		return domain.NewValidationError("alias",
			fmt.Sprintf("must be at least %d characters", domain.MinAliasLength))
	}

	if in.SecretType == domain.SecretTypeURL && !in.IsEncryptedWithUserPassword {
		u, err := url.Parse(in.Message)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
			return domain.NewValidationError("message", "must be a valid http(s) URL")
		}
	}

	if in.SecretType == domain.SecretTypeNeogram {
		if in.NeogramDestructionMessage == "" {
			return domain.NewValidationError("neogramDestructionMessage", "is required")
		}
		if in.NeogramDestructionTimeout <= 0 {
			return domain.NewValidationError("neogramDestructionTimeout", "must be positive")
		}
	}

	channels := 0
	for _, contact := range []string{in.ReceiptEmail, in.ReceiptPhoneNumber, in.ReceiptWebhookID} {
		if contact != "" {
			channels++
		}
	}
	if channels > 1 {
		return domain.NewValidationError("receipt", "at most one receipt channel is allowed")
	}
	if in.ReceiptEmail != "" && !strings.Contains(in.ReceiptEmail, "@") {
		return domain.NewValidationError("receiptEmail", "must be a valid email address")
	}

	return nil
}
