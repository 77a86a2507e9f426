package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apppayment "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// RedirectConfig holds the storefront pages the gateway callbacks return to
type RedirectConfig struct {
	// SuccessBase is the order page base; the order id is appended
	SuccessBase string
	// FailBase is the checkout page
	FailBase string
}

// PaymentHandler handles payment confirmation, cancellation and gateway callbacks
type PaymentHandler struct {
	BaseHandler
	reconciliation *apppayment.ReconciliationService
	redirects      RedirectConfig
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(reconciliation *apppayment.ReconciliationService, redirects RedirectConfig) *PaymentHandler {
	return &PaymentHandler{reconciliation: reconciliation, redirects: redirects}
}

// Confirm godoc
//
//	@Summary		Confirm a payment
//	@Description	Approves the payment with the gateway and confirms the order
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		ConfirmPaymentRequest	true	"Payment to confirm"
//	@Success		200		{object}	APIResponse[PaymentResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse	"Gateway rejected the payment"
//	@Router			/payments/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	p, err := h.reconciliation.ConfirmPayment(c.Request.Context(), owner,
		uuid.MustParse(req.OrderID), req.PaymentKey, decimal.NewFromInt(req.Amount))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToPaymentResponse(p))
}

// Cancel godoc
//
//	@Summary	Cancel a payment
//	@Tags		payments
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		payment_key	path		string					true	"Payment key"
//	@Param		request		body		CancelPaymentRequest	false	"Cancel reason"
//	@Success	200			{object}	APIResponse[PaymentResponse]
//	@Failure	404			{object}	ErrorResponse
//	@Failure	502			{object}	ErrorResponse
//	@Router		/payments/{payment_key}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	var req CancelPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindingError(c, err)
			return
		}
	}

	p, err := h.reconciliation.CancelPayment(c.Request.Context(), owner, c.Param("payment_key"), req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToPaymentResponse(p))
}

// List godoc
//
//	@Summary	List my payments
//	@Tags		payments
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	APIResponse[[]PaymentResponse]
//	@Router		/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	payments, err := h.reconciliation.GetUserPayments(c.Request.Context(), owner)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToPaymentResponses(payments))
}

// Get godoc
//
//	@Summary	Get one of my payments
//	@Tags		payments
//	@Produce	json
//	@Security	BearerAuth
//	@Param		payment_key	path		string	true	"Payment key"
//	@Success	200			{object}	APIResponse[PaymentResponse]
//	@Failure	404			{object}	ErrorResponse
//	@Router		/payments/{payment_key} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	p, err := h.reconciliation.GetPaymentByKey(c.Request.Context(), owner, c.Param("payment_key"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ToPaymentResponse(p))
}

// SuccessCallback godoc
//
//	@Summary		Gateway success redirect
//	@Description	Approves the payment and redirects to the order page, or back to checkout on failure
//	@Tags			payments
//	@Param			orderId		query	string	true	"Order ID"
//	@Param			paymentKey	query	string	true	"Payment key"
//	@Param			amount		query	int		true	"Approved amount"
//	@Success		302
//	@Router			/payments/callback/success [get]
func (h *PaymentHandler) SuccessCallback(c *gin.Context) {
	cb, err := apppayment.ParseSuccessCallback(c.Query("orderId"), c.Query("paymentKey"), c.Query("amount"))
	if err != nil {
		h.redirectFail(c, url.Values{"error": {callbackErrorCode(err)}})
		return
	}

	if _, err := h.reconciliation.HandleSuccessCallback(c.Request.Context(), cb); err != nil {
		logger.L(c.Request.Context()).Warn("payment success callback failed",
			zap.String("order_id", cb.OrderID.String()),
			zap.String("payment_key", cb.PaymentKey),
			zap.Error(err),
		)
		h.redirectFail(c, url.Values{"error": {apppayment.CallbackErrPaymentFailed}})
		return
	}

	target := strings.TrimRight(h.redirects.SuccessBase, "/") + "/" + cb.OrderID.String()
	c.Redirect(http.StatusFound, target+"?"+url.Values{"status": {"success"}}.Encode())
}

// FailCallback godoc
//
//	@Summary		Gateway fail redirect
//	@Description	Records the cancellation when a payment key is present and redirects to checkout
//	@Tags			payments
//	@Param			paymentKey	query	string	false	"Payment key"
//	@Param			code		query	string	false	"Gateway error code"
//	@Param			message		query	string	false	"Gateway error message"
//	@Success		302
//	@Router			/payments/callback/fail [get]
func (h *PaymentHandler) FailCallback(c *gin.Context) {
	code := c.Query("code")
	message := c.Query("message")
	if err := h.reconciliation.HandleFailCallback(c.Request.Context(), c.Query("paymentKey"), code, message); err != nil {
		logger.L(c.Request.Context()).Warn("payment fail callback not recorded",
			zap.String("payment_key", c.Query("paymentKey")),
			zap.Error(err),
		)
	}
	h.redirectFail(c, url.Values{"code": {code}, "message": {message}})
}

func (h *PaymentHandler) redirectFail(c *gin.Context, params url.Values) {
	params.Set("status", "fail")
	c.Redirect(http.StatusFound, h.redirects.FailBase+"?"+params.Encode())
}

func callbackErrorCode(err error) string {
	var cbErr *apppayment.CallbackError
	if errors.As(err, &cbErr) {
		return cbErr.Code
	}
	return apppayment.CallbackErrPaymentFailed
}
