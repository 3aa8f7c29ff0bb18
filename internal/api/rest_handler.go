package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"veilpay/internal/domain"
	"veilpay/internal/processor"
	"veilpay/internal/repository"
	"veilpay/internal/service"
	"veilpay/pkg/metrics"
	"veilpay/pkg/validator"
)

// callerHeader carries the account identity supplied by the wallet/session
// layer in front of this service.
const callerHeader = "X-Account-ID"

type APIHandler struct {
	rules          *service.RuleService
	subscriptions  *service.SubscriptionService
	executor       *processor.PaymentExecutor
	metrics        *metrics.MetricsCollector
	validator      *validator.RequestValidator
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewAPIHandler(
	rules *service.RuleService,
	subscriptions *service.SubscriptionService,
	executor *processor.PaymentExecutor,
	metricsCollector *metrics.MetricsCollector,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		rules:          rules,
		subscriptions:  subscriptions,
		executor:       executor,
		metrics:        metricsCollector,
		validator:      validator.NewRequestValidator(),
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type CreateRuleRequest struct {
	RuleID              string `json:"rule_id"`
	Ciphertext          string `json:"ciphertext"`
	WellFormednessProof string `json:"well_formedness_proof"`
	PublicThreshold     uint64 `json:"public_threshold"`
	Recipient           string `json:"recipient"`
	Description         string `json:"description"`
}

type CreateSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id"`
	RuleID         string `json:"rule_id"`
}

type ExecutePaymentRequest struct {
	SubscriptionID string `json:"subscription_id"`
	ClearValue     string `json:"clear_value"`
	Proof          string `json:"proof"`
}

type IDListResponse struct {
	IDs []string `json:"ids"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *APIHandler) CreateRuleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	if err := h.validator.ValidateID("rule_id", req.RuleID); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}
	if err := h.validator.ValidateAccount("recipient", req.Recipient); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}
	ciphertext, err := h.validator.DecodeHex("ciphertext", req.Ciphertext)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}
	proof, err := h.validator.DecodeHex("well_formedness_proof", req.WellFormednessProof)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	rule, err := h.rules.CreateRule(ctx, service.CreateRuleParams{
		RuleID:              req.RuleID,
		Ciphertext:          ciphertext,
		WellFormednessProof: proof,
		PublicThreshold:     req.PublicThreshold,
		Recipient:           req.Recipient,
		Description:         req.Description,
		Creator:             caller,
	})
	if err != nil {
		h.sendCoreError(w, err)
		return
	}

	h.metrics.RecordRuleCreated()
	h.sendJSON(w, rule.View(), http.StatusCreated)
}

func (h *APIHandler) DisableRuleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	if err := h.rules.DisableRule(ctx, r.PathValue("id"), caller); err != nil {
		h.sendCoreError(w, err)
		return
	}

	h.metrics.RecordRuleDisabled()
	h.sendJSON(w, map[string]string{"status": "disabled"}, http.StatusOK)
}

func (h *APIHandler) GetRuleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	view, err := h.rules.GetRule(ctx, r.PathValue("id"))
	if err != nil {
		h.sendCoreError(w, err)
		return
	}

	h.sendJSON(w, view, http.StatusOK)
}

func (h *APIHandler) ListRuleIDsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	ids, err := h.rules.ListRuleIDs(ctx)
	if err != nil {
		h.sendCoreError(w, err)
		return
	}

	h.sendJSON(w, IDListResponse{IDs: ids}, http.StatusOK)
}

func (h *APIHandler) ListRuleSubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	subs, err := h.subscriptions.ListSubscriptionsForRule(ctx, r.PathValue("id"))
	if err != nil {
		h.sendCoreError(w, err)
		return
	}
	if subs == nil {
		subs = []*domain.Subscription{}
	}

	h.sendJSON(w, subs, http.StatusOK)
}

func (h *APIHandler) CreateSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	var req CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	if err := h.validator.ValidateID("subscription_id", req.SubscriptionID); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}
	if err := h.validator.ValidateID("rule_id", req.RuleID); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	sub, err := h.subscriptions.CreateSubscription(ctx, req.SubscriptionID, req.RuleID, caller)
	if err != nil {
		h.sendCoreError(w, err)
		return
	}

	h.metrics.RecordSubscriptionCreated()
	h.sendJSON(w, sub, http.StatusCreated)
}

func (h *APIHandler) DisableSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	if err := h.subscriptions.DisableSubscription(ctx, r.PathValue("id"), caller); err != nil {
		h.sendCoreError(w, err)
		return
	}

	h.metrics.RecordSubscriptionDisabled()
	h.sendJSON(w, map[string]string{"status": "disabled"}, http.StatusOK)
}

func (h *APIHandler) GetSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	sub, err := h.subscriptions.GetSubscription(ctx, r.PathValue("id"))
	if err != nil {
		h.sendCoreError(w, err)
		return
	}

	h.sendJSON(w, sub, http.StatusOK)
}

func (h *APIHandler) ListSubscriptionIDsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	ids, err := h.subscriptions.ListSubscriptionIDs(ctx)
	if err != nil {
		h.sendCoreError(w, err)
		return
	}

	h.sendJSON(w, IDListResponse{IDs: ids}, http.StatusOK)
}

func (h *APIHandler) ExecutePaymentHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req ExecutePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	if err := h.validator.ValidateID("subscription_id", req.SubscriptionID); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}
	clearValue, err := h.validator.DecodeHex("clear_value", req.ClearValue)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}
	proof, err := h.validator.DecodeHex("proof", req.Proof)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR")
		return
	}

	receipt, err := h.executor.ExecutePayment(ctx, req.SubscriptionID, clearValue, proof)
	h.metrics.RecordExecution(time.Since(startTime), rejectReason(err))

	if err != nil {
		h.sendCoreError(w, err)
		return
	}

	h.sendJSON(w, receipt, http.StatusOK)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"available": h.executor.IsAvailable(),
		"timestamp": time.Now().UTC(),
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := r.Header.Get(callerHeader)
	if caller == "" {
		h.sendError(w, fmt.Sprintf("%s header is required", callerHeader), http.StatusUnauthorized, "MISSING_CALLER")
		return "", false
	}
	return caller, true
}

// sendCoreError maps the core error taxonomy onto HTTP statuses, keeping each
// condition distinguishable for automated callers.
func (h *APIHandler) sendCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrDuplicateID):
		h.sendError(w, err.Error(), http.StatusConflict, "DUPLICATE_ID")
	case errors.Is(err, repository.ErrNotFound):
		h.sendError(w, err.Error(), http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, repository.ErrUnauthorized):
		h.sendError(w, err.Error(), http.StatusForbidden, "UNAUTHORIZED")
	case errors.Is(err, repository.ErrInactiveEntity):
		h.sendError(w, err.Error(), http.StatusConflict, "INACTIVE_ENTITY")
	case errors.Is(err, repository.ErrInvalidCiphertext):
		h.sendError(w, err.Error(), http.StatusBadRequest, "INVALID_CIPHERTEXT")
	case errors.Is(err, repository.ErrInvalidProof):
		h.sendError(w, err.Error(), http.StatusUnprocessableEntity, "INVALID_PROOF")
	case errors.Is(err, repository.ErrThresholdNotMet):
		h.sendError(w, err.Error(), http.StatusUnprocessableEntity, "THRESHOLD_NOT_MET")
	default:
		h.sendError(w, "Internal server error", http.StatusInternalServerError, "SERVER_ERROR")
	}
}

func rejectReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrInactiveEntity):
		return "inactive_entity"
	case errors.Is(err, repository.ErrInvalidProof):
		return "invalid_proof"
	case errors.Is(err, repository.ErrThresholdNotMet):
		return "threshold_not_met"
	default:
		return "internal"
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code string) {
	errorResponse := ErrorResponse{
		Error: message,
		Code:  code,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/rules", h.CreateRuleHandler)
	mux.HandleFunc("GET /api/v1/rules", h.ListRuleIDsHandler)
	mux.HandleFunc("GET /api/v1/rules/{id}", h.GetRuleHandler)
	mux.HandleFunc("POST /api/v1/rules/{id}/disable", h.DisableRuleHandler)
	mux.HandleFunc("GET /api/v1/rules/{id}/subscriptions", h.ListRuleSubscriptionsHandler)
	mux.HandleFunc("POST /api/v1/subscriptions", h.CreateSubscriptionHandler)
	mux.HandleFunc("GET /api/v1/subscriptions", h.ListSubscriptionIDsHandler)
	mux.HandleFunc("GET /api/v1/subscriptions/{id}", h.GetSubscriptionHandler)
	mux.HandleFunc("POST /api/v1/subscriptions/{id}/disable", h.DisableSubscriptionHandler)
	mux.HandleFunc("POST /api/v1/payments/execute", h.ExecutePaymentHandler)
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
}
