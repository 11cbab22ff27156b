// Package enum holds the string constant sets shared by the store layer and
// the services. Values stored in CHECK-constrained columns must match the
// schema exactly.
package enum

const (
	OrderKindSale     = "SALE"
	OrderKindPurchase = "PURCHASE"
)

const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
)

const (
	TableStatusFree     = "FREE"
	TableStatusOccupied = "OCCUPIED"
	TableStatusReserved = "RESERVED"
)

const (
	UserRoleOwner    = "OWNER"
	UserRoleEmployee = "EMPLOYEE"
)

const (
	DiscountKindPercent = "PERCENT"
	DiscountKindAmount  = "AMOUNT"
)

// Payment methods are labels, not schema constraints.
const (
	PaymentMethodCash     = "CASH"
	PaymentMethodTransfer = "TRANSFER"
	PaymentMethodCard     = "CARD"
)
