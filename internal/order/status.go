package order

import "tableserve-backend/internal/models"

// transitions is the allowed successor set for each order-item status.
// COMPLETED and CANCELLED are terminal.
var transitions = map[models.OrderItemStatus][]models.OrderItemStatus{
	models.ItemPending: {models.ItemCooking, models.ItemCancelled},
	models.ItemCooking: {models.ItemReady, models.ItemCancelled},
	models.ItemReady:   {models.ItemServed, models.ItemCancelled},
	models.ItemServed:  {models.ItemCompleted},
}

func CanTransition(from, to models.OrderItemStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
