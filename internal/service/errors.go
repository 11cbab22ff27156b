package service

import "errors"

// Errors returned by the order service.
var (
	ErrEmptyLines          = errors.New("order lines are required")
	ErrInvalidKind         = errors.New("invalid order kind")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrInvalidPrice        = errors.New("price must be >= 0")
	ErrInvalidProductID    = errors.New("invalid product_id")
	ErrInvalidIngredientID = errors.New("invalid ingredient_id")
	ErrLineKindMismatch    = errors.New("line reference does not match order kind")
	ErrInvalidDiscount     = errors.New("invalid discount_kind")
	ErrInvalidDiscountVal  = errors.New("discount must be >= 0")
	ErrTableRequired       = errors.New("table_id is required for sale orders")
	ErrInvalidTableID      = errors.New("invalid table_id")
	ErrTableNotFound       = errors.New("table not found")
	ErrInvalidCustomerID   = errors.New("invalid customer_id")
	ErrInvalidSupplierID   = errors.New("invalid supplier_id")
	ErrEmptyPayments       = errors.New("payment is required")
	ErrInvalidPayment      = errors.New("invalid payment")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderCompleted      = errors.New("line items of a completed order cannot be changed")
	ErrReopenNotAllowed    = errors.New("a completed order cannot be reopened")
)
