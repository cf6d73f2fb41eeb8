package services

import "github.com/opscore/orderflow/internal/models"

// Per-type state machines. A transition absent from the table is illegal;
// statuses are never coerced.

var quoteTransitions = map[models.QuoteStatus][]models.QuoteStatus{
	models.QuoteStatusDraft:    {models.QuoteStatusSent},
	models.QuoteStatusSent:     {models.QuoteStatusAccepted, models.QuoteStatusRejected, models.QuoteStatusExpired},
	models.QuoteStatusAccepted: {models.QuoteStatusConverted},
}

var deliveryTransitions = map[models.DeliveryOrderStatus][]models.DeliveryOrderStatus{
	models.DeliveryOrderStatusDraft:      {models.DeliveryOrderStatusDispatched, models.DeliveryOrderStatusCancelled},
	models.DeliveryOrderStatusDispatched: {models.DeliveryOrderStatusDelivered},
}

var purchaseTransitions = map[models.PurchaseOrderStatus][]models.PurchaseOrderStatus{
	models.PurchaseOrderStatusDraft: {models.PurchaseOrderStatusSent, models.PurchaseOrderStatusCancelled},
	models.PurchaseOrderStatusSent:  {models.PurchaseOrderStatusReceived, models.PurchaseOrderStatusCancelled},
}

func canTransition[S comparable](table map[S][]S, from, to S) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}
