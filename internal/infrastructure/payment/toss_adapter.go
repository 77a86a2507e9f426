package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

const (
	tossConfirmPath = "/v1/payments/confirm"
	tossCancelPath  = "/v1/payments/%s/cancel"

	// maxResponseBytes bounds how much of a gateway response is read
	maxResponseBytes = 1 << 20
)

// TossAdapter implements payment.Gateway for Toss Payments
type TossAdapter struct {
	config     *TossConfig
	httpClient *http.Client
	authHeader string
	logger     *zap.Logger
}

// NewTossAdapter creates a new Toss Payments adapter
func NewTossAdapter(config *TossConfig, logger *zap.Logger) (*TossAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TossAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(config.SecretKey+":")),
		logger:     logger,
	}, nil
}

// Confirm approves a payment the customer authorised in the widget
func (a *TossAdapter) Confirm(ctx context.Context, req *payment.ConfirmRequest) (*payment.ConfirmResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := tossConfirmRequest{
		PaymentKey: req.PaymentKey,
		OrderID:    req.OrderID.String(),
		Amount:     req.Amount.IntPart(),
	}

	var resp tossPayment
	if err := a.doRequest(ctx, tossConfirmPath, body, &resp); err != nil {
		return nil, err
	}

	status, err := mapTossStatus(resp.Status)
	if err != nil {
		return nil, err
	}
	amount := resp.Amount
	if amount.IsZero() {
		amount = resp.TotalAmount
	}

	result := &payment.ConfirmResult{
		PaymentKey: resp.PaymentKey,
		OrderID:    resp.OrderID,
		Amount:     amount,
		Status:     status,
		Method:     resp.Method,
	}
	if resp.ApprovedAt != nil {
		result.ApprovedAt = *resp.ApprovedAt
	}
	return result, nil
}

// Cancel cancels the full amount of a payment
func (a *TossAdapter) Cancel(ctx context.Context, req *payment.CancelRequest) (*payment.CancelResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	path := fmt.Sprintf(tossCancelPath, url.PathEscape(req.PaymentKey))
	var resp tossPayment
	if err := a.doRequest(ctx, path, tossCancelRequest{CancelReason: req.CancelReason}, &resp); err != nil {
		return nil, err
	}

	status, err := mapTossStatus(resp.Status)
	if err != nil {
		return nil, err
	}

	result := &payment.CancelResult{
		PaymentKey: resp.PaymentKey,
		OrderID:    resp.OrderID,
		Status:     status,
		Cancels:    make([]payment.CancelRecord, 0, len(resp.Cancels)),
	}
	for _, c := range resp.Cancels {
		result.Cancels = append(result.Cancels, payment.CancelRecord{
			CancelReason: c.CancelReason,
			CanceledAt:   c.CanceledAt,
			CancelAmount: c.CancelAmount,
		})
	}
	return result, nil
}

// doRequest POSTs body as JSON and decodes a 2xx response into out
func (a *TossAdapter) doRequest(ctx context.Context, path string, body, out any) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "toss", "post",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("http.route", path),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("toss: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("toss: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", a.authHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Warn("toss request failed", zap.String("path", path), zap.Error(err))
		return &payment.GatewayError{Err: fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &payment.GatewayError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp tossErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Code == "" {
			errResp.Code = "UNKNOWN_ERROR"
			errResp.Message = strings.TrimSpace(http.StatusText(resp.StatusCode))
		}
		a.logger.Warn("toss request rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("code", errResp.Code),
		)
		return payment.NewGatewayError(resp.StatusCode, errResp.Code, errResp.Message)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &payment.GatewayError{StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", payment.ErrGatewayInvalidResponse, err)}
	}
	return nil
}

// mapTossStatus maps the upper-case Toss status to the domain status
func mapTossStatus(status string) (payment.Status, error) {
	s := payment.Status(strings.ToLower(status))
	if !s.IsValid() {
		return "", &payment.GatewayError{Err: fmt.Errorf("%w: unknown status %q", payment.ErrGatewayInvalidResponse, status)}
	}
	return s, nil
}

// IsRetryable reports whether a gateway failure may succeed on retry
func IsRetryable(err error) bool {
	if errors.Is(err, payment.ErrGatewayUnavailable) {
		return true
	}
	var gwErr *payment.GatewayError
	return errors.As(err, &gwErr) && gwErr.StatusCode >= http.StatusInternalServerError
}

var _ payment.Gateway = (*TossAdapter)(nil)
