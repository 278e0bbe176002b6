package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	"github.com/polkiloo/pizzeria/internal/domain/model"
	"github.com/polkiloo/pizzeria/internal/server/http/dto"
	"github.com/polkiloo/pizzeria/internal/usecase"
)

const updatableFields = "payment_method, notes, estimated_minutes, discount and customer_id"

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), toCreateCommand(req, CurrentActor(c)))
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusCreated, toOrderResponse(*order))
}

// Update handles PATCH /api/orders/:id. Fields outside the update whitelist are rejected.
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			badRequest(c, "only "+updatableFields+" can be updated")
			return
		}
		badRequest(c, "invalid request body")
		return
	}

	order, err := h.facade.UpdateOrder(c.Request.Context(), id, toUpdateCommand(req))
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, toOrderResponse(*order))
}

// ChangeState handles PATCH /api/orders/:id/state.
func (h *OrderHandler) ChangeState(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req dto.ChangeStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.State == "" {
		badRequest(c, "state is required")
		return
	}

	target := model.OrderState(req.State)
	if !target.Valid() {
		badRequest(c, fmt.Sprintf("unknown state %q", req.State))
		return
	}

	cmd := usecase.ChangeStateCommand{
		OrderID: id,
		Target:  target,
		Reason:  req.Reason,
		Actor:   CurrentActor(c),
	}
	if req.ExpectedState != nil {
		expected := model.OrderState(*req.ExpectedState)
		if !expected.Valid() {
			badRequest(c, fmt.Sprintf("unknown expected state %q", *req.ExpectedState))
			return
		}
		cmd.ExpectedState = &expected
	}

	change, err := h.facade.ChangeOrderState(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, toStateChangeResponse(change))
}

// Cancel handles POST /api/orders/:id/cancel. The body is optional.
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req dto.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}

	change, err := h.facade.CancelOrder(c.Request.Context(), id, req.Reason, CurrentActor(c))
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, toStateChangeResponse(change))
}

// Recalculate handles POST /api/orders/:id/recalculate.
func (h *OrderHandler) Recalculate(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.facade.RecalculateOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, toOrderResponse(*order))
}

// Get handles GET /api/orders/:id; include=history embeds the state history.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	if c.Query("include") == "history" {
		order, history, err := h.facade.OrderWithHistory(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		resp := toOrderResponse(*order)
		resp.History = toHistoryResponse(history)
		respond(c, http.StatusOK, resp)
		return
	}

	order, err := h.facade.Order(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, toOrderResponse(*order))
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}

	orders, err := h.facade.Orders(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, toOrderList(orders))
}

// Kitchen handles GET /api/orders/kitchen.
func (h *OrderHandler) Kitchen(c *gin.Context) {
	orders, err := h.facade.Kitchen(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, toOrderList(orders))
}

// History handles GET /api/orders/:id/history.
func (h *OrderHandler) History(c *gin.Context) {
	id, ok := parseOrderID(c)
	if !ok {
		return
	}

	history, err := h.facade.OrderHistory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, toHistoryResponse(history))
}

// Summary handles GET /api/orders/summary. Without a date the current day is used.
func (h *OrderHandler) Summary(c *gin.Context) {
	var day time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(summaryDateLayout, raw)
		if err != nil {
			badRequest(c, "date must be formatted as YYYY-MM-DD")
			return
		}
		day = parsed
	}

	summary, err := h.facade.DailySummary(c.Request.Context(), day)
	if err != nil {
		writeError(c, err)
		return
	}

	respond(c, http.StatusOK, toSummaryResponse(summary))
}

func parseFilter(c *gin.Context) (model.OrderFilter, error) {
	var filter model.OrderFilter

	if raw := c.Query("state"); raw != "" {
		state := model.OrderState(raw)
		if !state.Valid() {
			return filter, fmt.Errorf("%w: unknown state %q", domainErrors.ErrValidation, raw)
		}
		filter.State = &state
	}

	var err error
	if filter.From, err = parseTimeParam(c.Query("from"), false); err != nil {
		return filter, err
	}
	if filter.To, err = parseTimeParam(c.Query("to"), true); err != nil {
		return filter, err
	}

	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("%w: customer_id must be an integer", domainErrors.ErrValidation)
		}
		filter.CustomerID = &id
	}

	if filter.Limit, err = parseIntParam(c.Query("limit"), "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = parseIntParam(c.Query("offset"), "offset"); err != nil {
		return filter, err
	}

	return filter, nil
}

// parseTimeParam accepts RFC 3339 timestamps or plain dates. A plain date used as
// an upper bound covers the whole day.
func parseTimeParam(raw string, upper bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts, nil
	}
	day, err := time.Parse(summaryDateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid time %q", domainErrors.ErrValidation, raw)
	}
	if upper {
		day = day.AddDate(0, 0, 1)
	}
	return &day, nil
}

func parseIntParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domainErrors.ErrValidation, name)
	}
	return v, nil
}
