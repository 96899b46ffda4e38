package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"secretlink/internal/domain"
	"secretlink/internal/service"
	"secretlink/internal/utility"
)

// Headers filled in by the out-of-scope auth layer in front of this
// service. Absent headers mean an anonymous visitor.
const (
	headerAccountID   = "X-Account-Id"
	headerAccountTier = "X-Account-Tier"
)

type createRequest struct {
	SecretType                  string `json:"secretType"`
	Message                     string `json:"message"`
	IsEncryptedWithUserPassword bool   `json:"isEncryptedWithUserPassword"`
	Alias                       string `json:"alias"`
	ReceiptEmail                string `json:"receiptEmail"`
	ReceiptPhoneNumber          string `json:"receiptPhoneNumber"`
	ReceiptWebhookID            string `json:"receiptWebhookId"`
	NeogramDestructionMessage   string `json:"neogramDestructionMessage"`
	NeogramDestructionTimeout   int    `json:"neogramDestructionTimeout"`
	Expiry                      string `json:"expiry"`
}

type createResponse struct {
	Alias     string    `json:"alias"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type consumeResponse struct {
	SecretType                  domain.SecretType `json:"secretType"`
	Message                     string            `json:"message"`
	IsEncryptedWithUserPassword bool              `json:"isEncryptedWithUserPassword"`
	NeogramDestructionMessage   *string           `json:"neogramDestructionMessage,omitempty"`
	NeogramDestructionTimeout   *int              `json:"neogramDestructionTimeout,omitempty"`
}

type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utility.HttpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	in := service.CreateInput{
		SecretType:                  domain.SecretType(req.SecretType),
		Message:                     req.Message,
		IsEncryptedWithUserPassword: req.IsEncryptedWithUserPassword,
		Alias:                       strings.TrimSpace(req.Alias),
		ReceiptEmail:                strings.TrimSpace(req.ReceiptEmail),
		ReceiptPhoneNumber:          strings.TrimSpace(req.ReceiptPhoneNumber),
		ReceiptWebhookID:            strings.TrimSpace(req.ReceiptWebhookID),
		NeogramDestructionMessage:   req.NeogramDestructionMessage,
		NeogramDestructionTimeout:   req.NeogramDestructionTimeout,
		Expiry:                      req.Expiry,
		Tier:                        tierFromRequest(r),
		AccountID:                   r.Header.Get(headerAccountID),
		Locale:                      localeFromRequest(r),
	}

	out, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	utility.WriteJSON(w, http.StatusCreated, createResponse{
		Alias:     out.Alias,
		Message:   "Secret saved!",
		ExpiresAt: out.ExpiresAt,
	})
}

func (h *Handler) HandleConsume(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	if alias == "" {
		utility.HttpError(w, http.StatusBadRequest, "missing alias")
		return
	}

	payload, err := h.svc.Consume(r.Context(), alias, localeFromRequest(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	res := consumeResponse{
		SecretType:                  payload.SecretType,
		Message:                     payload.Message,
		IsEncryptedWithUserPassword: payload.IsEncryptedWithUserPassword,
	}
	if payload.SecretType == domain.SecretTypeNeogram {
		res.NeogramDestructionMessage = &payload.NeogramDestructionMessage
		res.NeogramDestructionTimeout = &payload.NeogramDestructionTimeout
	}

	utility.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), r.Header.Get(headerAccountID))
	if err != nil {
		h.logger.Error("failed to read stats", zap.Error(err))
		utility.HttpError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	utility.WriteJSON(w, http.StatusOK, stats)
}

// writeServiceError maps lifecycle errors to HTTP statuses. Not-found
// intentionally says nothing about whether the alias ever existed.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		utility.HttpError(w, http.StatusUnprocessableEntity, verr.Error())
	case errors.Is(err, domain.ErrDuplicateAlias):
		utility.HttpError(w, http.StatusConflict, "alias already in use")
	case errors.Is(err, domain.ErrNotFound):
		utility.HttpError(w, http.StatusNotFound,
			"Secret not found - This usually means the secret link has already been visited and therefore no longer exists.")
	default:
		h.logger.Error("request failed", zap.Error(err))
		utility.HttpError(w, http.StatusInternalServerError, "something went wrong")
	}
}

func tierFromRequest(r *http.Request) domain.Tier {
	switch domain.Tier(r.Header.Get(headerAccountTier)) {
	case domain.TierFree:
		return domain.TierFree
	case domain.TierPremium:
		return domain.TierPremium
	default:
		return domain.TierVisitor
	}
}

// localeFromRequest extracts a two-letter language code from
// Accept-Language. Receipt templates fall back to English for
// anything unknown.
func localeFromRequest(r *http.Request) string {
	lang := r.Header.Get("Accept-Language")
	if len(lang) < 2 {
		return "en"
	}
	return strings.ToLower(lang[:2])
}
