package handlers

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/pizzeria/internal/domain/model"
	"github.com/polkiloo/pizzeria/internal/server/http/dto"
	"github.com/polkiloo/pizzeria/internal/usecase"
)

const summaryDateLayout = "2006-01-02"

func toCreateCommand(req dto.CreateOrderRequest, actor string) usecase.CreateOrderCommand {
	cmd := usecase.CreateOrderCommand{
		CustomerID:       req.CustomerID,
		Discount:         decimal.Zero,
		PaymentMethod:    model.PaymentMethod(req.PaymentMethod),
		Notes:            req.Notes,
		EstimatedMinutes: req.EstimatedMinutes,
		Actor:            actor,
	}
	if req.Discount != nil {
		cmd.Discount = *req.Discount
	}
	if req.Customer != nil {
		cmd.Customer = &model.NewCustomer{
			Name:    req.Customer.Name,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		}
	}
	cmd.Items = make([]model.ItemSpec, len(req.Items))
	for i, item := range req.Items {
		cmd.Items[i] = toItemSpec(item)
	}
	return cmd
}

// toItemSpec defaults an omitted quantity to one pizza.
func toItemSpec(item dto.ItemRequest) model.ItemSpec {
	quantity := 1
	if item.Quantity != nil {
		quantity = *item.Quantity
	}
	return model.ItemSpec{
		PizzaID:       item.PizzaID,
		Quantity:      quantity,
		Extras:        item.Extras,
		Removed:       item.Removed,
		HalfAndHalf:   item.HalfAndHalf,
		SecondPizzaID: item.SecondPizzaID,
		SecondExtras:  item.SecondExtras,
		SecondRemoved: item.SecondRemoved,
		BothExtras:    item.BothExtras,
		BothRemoved:   item.BothRemoved,
	}
}

func toUpdateCommand(req dto.UpdateOrderRequest) usecase.UpdateOrderCommand {
	cmd := usecase.UpdateOrderCommand{
		Notes:            req.Notes,
		EstimatedMinutes: req.EstimatedMinutes,
		Discount:         req.Discount,
		CustomerID:       req.CustomerID,
	}
	if req.PaymentMethod != nil {
		method := model.PaymentMethod(*req.PaymentMethod)
		cmd.PaymentMethod = &method
	}
	return cmd
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:               order.ID,
		Number:           order.Number,
		State:            string(order.State),
		CustomerID:       order.CustomerID,
		Subtotal:         order.Subtotal,
		Discount:         order.Discount,
		Total:            order.Total,
		PaymentMethod:    string(order.PaymentMethod),
		Notes:            order.Notes,
		EstimatedMinutes: order.EstimatedMinutes,
		PlacedAt:         order.PlacedAt,
		PrepStartedAt:    order.PrepStartedAt,
		ReadyAt:          order.ReadyAt,
		DeliveredAt:      order.DeliveredAt,
		CanceledAt:       order.CanceledAt,
		UpdatedAt:        order.UpdatedAt,
	}
	if order.Customer != nil {
		resp.Customer = &dto.CustomerResponse{
			ID:      order.Customer.ID,
			Name:    order.Customer.Name,
			Phone:   order.Customer.Phone,
			Address: order.Customer.Address,
		}
	}
	if len(order.Items) > 0 {
		resp.Items = make([]dto.ItemResponse, len(order.Items))
		for i, item := range order.Items {
			resp.Items[i] = toItemResponse(item)
		}
	}
	return resp
}

func toOrderList(orders []model.Order) []dto.OrderResponse {
	resp := make([]dto.OrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	return resp
}

func toItemResponse(item model.OrderItem) dto.ItemResponse {
	resp := dto.ItemResponse{
		ID:              item.ID,
		PizzaID:         item.Spec.PizzaID,
		Quantity:        item.Spec.Quantity,
		HalfAndHalf:     item.Spec.HalfAndHalf,
		SecondPizzaID:   item.Spec.SecondPizzaID,
		Extras:          toExtras(item.Spec.Extras, item.ExtraDetails),
		Removed:         nonNil(item.Spec.Removed),
		SecondRemoved:   item.Spec.SecondRemoved,
		BothRemoved:     item.Spec.BothRemoved,
		BasePrice:       item.Pricing.BasePrice,
		ExtrasPrice:     item.Pricing.ExtrasPrice,
		RemovalDiscount: item.Pricing.RemovalDiscount,
		UnitPrice:       item.Pricing.UnitPrice,
		LineTotal:       item.Pricing.LineTotal,
	}
	if item.Pizza != nil {
		resp.PizzaName = item.Pizza.Name
	}
	if item.SecondPizza != nil {
		resp.SecondPizzaName = item.SecondPizza.Name
	}
	if len(item.Spec.SecondExtras) > 0 {
		resp.SecondExtras = toExtras(item.Spec.SecondExtras, item.ExtraDetails)
	}
	if len(item.Spec.BothExtras) > 0 {
		resp.BothExtras = toExtras(item.Spec.BothExtras, item.ExtraDetails)
	}
	return resp
}

// toExtras resolves names and prices from the catalog projection; unknown ids keep only the id.
func toExtras(ids []int64, details map[int64]model.Extra) []dto.ExtraResponse {
	out := make([]dto.ExtraResponse, len(ids))
	for i, id := range ids {
		out[i] = dto.ExtraResponse{ID: id}
		if extra, ok := details[id]; ok {
			price := extra.Price
			out[i].Name = extra.Name
			out[i].Price = &price
		}
	}
	return out
}

func toHistoryResponse(entries []model.StateHistoryEntry) []dto.HistoryResponse {
	out := make([]dto.HistoryResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.HistoryResponse{
			ID:        e.ID,
			State:     string(e.NewState),
			Reason:    e.Reason,
			Actor:     e.Actor,
			ChangedAt: e.ChangedAt,
		}
		if e.PreviousState != nil {
			prev := string(*e.PreviousState)
			out[i].PreviousState = &prev
		}
	}
	return out
}

func toStateChangeResponse(change *usecase.StateChange) dto.StateChangeResponse {
	return dto.StateChangeResponse{
		PreviousState: string(change.Previous),
		Order:         toOrderResponse(*change.Order),
	}
}

// toSummaryResponse reports every known state, including those without orders.
func toSummaryResponse(summary *model.DailySummary) dto.SummaryResponse {
	byState := make(map[string]int, len(model.OrderStates))
	for _, s := range model.OrderStates {
		byState[string(s)] = summary.ByState[s]
	}
	return dto.SummaryResponse{
		Date:          summary.Date.Format(summaryDateLayout),
		TotalOrders:   summary.TotalOrders,
		ByState:       byState,
		Revenue:       summary.Revenue,
		AverageTicket: summary.AverageTicket,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
