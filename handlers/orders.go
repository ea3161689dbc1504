package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cafe-pos-api/apperr"
	"cafe-pos-api/controllers"
	"cafe-pos-api/middleware"
	"cafe-pos-api/models"
	"cafe-pos-api/response"
	"cafe-pos-api/services"
)

// orderRequest accepts every spelling the tills have sent over the years.
// normalize folds them into services.CreateOrderInput.
type orderRequest struct {
	StaffID        *string             `json:"staffId"`
	CreatedBy      *string             `json:"createdBy"`
	Subtotal       decimal.NullDecimal `json:"subtotal"`
	TaxAmount      decimal.NullDecimal `json:"taxAmount"`
	Tax            decimal.NullDecimal `json:"tax"`
	DiscountAmount decimal.NullDecimal `json:"discountAmount"`
	Discount       decimal.NullDecimal `json:"discount"`
	TotalAmount    decimal.NullDecimal `json:"totalAmount"`
	Total          decimal.NullDecimal `json:"total"`
	PaymentMethod  string              `json:"paymentMethod"`
	CashReceived   decimal.NullDecimal `json:"cashReceived"`
	AmountPaid     decimal.NullDecimal `json:"amountPaid"`
	ChangeAmount   decimal.NullDecimal `json:"changeAmount"`
	ChangeGiven    decimal.NullDecimal `json:"changeGiven"`
	Status         string              `json:"status"`
	CustomerName   string              `json:"customerName"`
	CustomerEmail  string              `json:"customerEmail"`
	Notes          *string             `json:"notes"`
	OrderNotes     *string             `json:"orderNotes"`
	Items          []orderItemRequest  `json:"items"`
}

type orderItemRequest struct {
	MenuItemID      *string             `json:"menuItemId"`
	MenuItemIDSnake *string             `json:"menu_item_id"`
	Name            *string             `json:"name"`
	MenuItemName    *string             `json:"menuItemName"`
	Size            *string             `json:"size"`
	SizeName        *string             `json:"sizeName"`
	Quantity        int                 `json:"quantity"`
	UnitPrice       decimal.NullDecimal `json:"unitPrice"`
	Price           decimal.NullDecimal `json:"price"`
	Notes           string              `json:"notes"`
}

func firstDecimal(vals ...decimal.NullDecimal) decimal.NullDecimal {
	for _, v := range vals {
		if v.Valid {
			return v
		}
	}
	return decimal.NullDecimal{}
}

func firstString(vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

// normalize resolves aliases and reports every missing required field at once.
func (r orderRequest) normalize() (services.CreateOrderInput, error) {
	subtotal := r.Subtotal
	tax := firstDecimal(r.TaxAmount, r.Tax)
	discount := firstDecimal(r.DiscountAmount, r.Discount)
	total := firstDecimal(r.TotalAmount, r.Total)

	var missing []string
	if len(r.Items) == 0 {
		missing = append(missing, "items are required")
	}
	if !subtotal.Valid {
		missing = append(missing, "subtotal is required")
	}
	if !tax.Valid {
		missing = append(missing, "taxAmount is required")
	}
	if !total.Valid {
		missing = append(missing, "totalAmount is required")
	}
	if r.PaymentMethod == "" {
		missing = append(missing, "paymentMethod is required")
	}
	if len(missing) > 0 {
		return services.CreateOrderInput{}, apperr.Validation(missing...)
	}

	in := services.CreateOrderInput{
		StaffID:        firstString(r.StaffID, r.CreatedBy),
		Subtotal:       subtotal.Decimal,
		TaxAmount:      tax.Decimal,
		DiscountAmount: discount.Decimal,
		TotalAmount:    total.Decimal,
		PaymentMethod:  models.PaymentMethod(strings.ToLower(r.PaymentMethod)),
		CashReceived:   firstDecimal(r.CashReceived, r.AmountPaid),
		ChangeAmount:   firstDecimal(r.ChangeAmount, r.ChangeGiven),
		Status:         models.OrderStatus(strings.ToLower(r.Status)),
		CustomerName:   r.CustomerName,
		CustomerEmail:  r.CustomerEmail,
		Notes:          firstString(r.Notes, r.OrderNotes),
		Items:          make([]services.LineItemInput, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, services.LineItemInput{
			MenuItemID: firstString(it.MenuItemID, it.MenuItemIDSnake),
			Name:       firstString(it.Name, it.MenuItemName),
			Size:       firstString(it.Size, it.SizeName),
			Quantity:   it.Quantity,
			UnitPrice:  firstDecimal(it.UnitPrice, it.Price).Decimal,
			Notes:      it.Notes,
		})
	}
	return in, nil
}

// ── Orders ──────────────────────────────────────────────────────────────────

// CreateOrder records a sale. The authenticated user is the fallback cashier.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req orderRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := req.normalize()
	if err != nil {
		response.Error(c, err)
		return
	}
	if in.StaffID == "" {
		in.StaffID = middleware.GetUserID(c)
	}
	res, err := h.OrderSvc.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res, "Order created successfully")
}

func (h *Handler) ListOrders(c *gin.Context) {
	var f controllers.OrderFilter
	if !bindQuery(c, &f) {
		return
	}
	page, err := h.Orders.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	views := make([]services.OrderView, 0, len(page.Items))
	for i := range page.Items {
		views = append(views, services.NewOrderView(&page.Items[i]))
	}
	response.OK(c, controllers.List[services.OrderView]{
		Items:  views,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

func (h *Handler) GetOrder(c *gin.Context) {
	o, err := h.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, services.NewOrderView(o))
}

type orderUpdateRequest struct {
	controllers.OrderUpdateInput
	Status *string `json:"status"`
	Reason string  `json:"reason"`
}

// UpdateOrder edits customer details and optionally moves the status.
func (h *Handler) UpdateOrder(c *gin.Context) {
	var req orderUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	if req.CustomerName != nil || req.CustomerEmail != nil || req.Notes != nil {
		if _, err := h.Orders.Update(ctx, id, req.OrderUpdateInput); err != nil {
			response.Error(c, err)
			return
		}
	}
	if req.Status != nil {
		to := models.OrderStatus(strings.ToLower(*req.Status))
		current, err := h.Orders.Get(ctx, id)
		if err != nil {
			response.Error(c, err)
			return
		}
		if current.Status != to {
			v, err := h.OrderSvc.ChangeStatus(ctx, id, to, middleware.GetUserID(c), req.Reason, middleware.GetPermissions(c))
			if err != nil {
				response.Error(c, err)
				return
			}
			response.OK(c, v, "Order updated")
			return
		}
	}
	o, err := h.Orders.Get(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, services.NewOrderView(o), "Order updated")
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	if err := h.Orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true}, "Order deleted")
}

type statusChangeRequest struct {
	Reason string `json:"reason"`
}

// readReason tolerates an empty body; the reason is optional.
func readReason(c *gin.Context) (string, bool) {
	var req statusChangeRequest
	if c.Request.ContentLength == 0 {
		return "", true
	}
	if !bindJSON(c, &req) {
		return "", false
	}
	return strings.TrimSpace(req.Reason), true
}

func (h *Handler) RefundOrder(c *gin.Context) {
	reason, ok := readReason(c)
	if !ok {
		return
	}
	v, err := h.OrderSvc.Refund(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), reason, middleware.GetPermissions(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v, "Order refunded")
}

func (h *Handler) VoidOrder(c *gin.Context) {
	reason, ok := readReason(c)
	if !ok {
		return
	}
	v, err := h.OrderSvc.Void(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), reason, middleware.GetPermissions(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v, "Order voided")
}

// ReprintReceipt prints a copy and bumps the reprint counter.
func (h *Handler) ReprintReceipt(c *gin.Context) {
	res, err := h.OrderSvc.Reprint(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res, "Receipt reprinted")
}

func (h *Handler) OrderHistory(c *gin.Context) {
	rows, err := h.Orders.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// ── Order items ─────────────────────────────────────────────────────────────

func (h *Handler) ListOrderItems(c *gin.Context) {
	var f controllers.OrderItemFilter
	if !bindQuery(c, &f) {
		return
	}
	page, err := h.OrderItems.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	views := make([]services.OrderItemView, 0, len(page.Items))
	for _, it := range page.Items {
		views = append(views, services.NewOrderItemView(it))
	}
	response.OK(c, controllers.List[services.OrderItemView]{
		Items:  views,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

func (h *Handler) GetOrderItem(c *gin.Context) {
	it, err := h.OrderItems.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, services.NewOrderItemView(*it))
}

func (h *Handler) UpdateOrderItem(c *gin.Context) {
	var in controllers.OrderItemUpdateInput
	if !bindJSON(c, &in) {
		return
	}
	it, err := h.OrderItems.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, services.NewOrderItemView(*it), "Order item updated")
}

func (h *Handler) DeleteOrderItem(c *gin.Context) {
	if err := h.OrderItems.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true}, "Order item deleted")
}
