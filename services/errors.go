package services

import (
	"errors"
	"fmt"

	"room-service/models"
	"room-service/store"
)

// ValidationError is returned before any write is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

type InvalidTransitionError struct {
	OrderID string
	From    models.OrderStatus
	To      models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	next, ok := e.From.Next()
	if !ok {
		return fmt.Sprintf("order %s is %s and cannot move to %s", e.OrderID, e.From, e.To)
	}
	return fmt.Sprintf("order %s is %s; next status must be %s, got %s", e.OrderID, e.From, next, e.To)
}

// PersistenceError wraps a failure of the backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// BillingSyncError is returned alongside a successfully created order when the
// room bill could not be updated. The order stands; RecalculateBills repairs the bill.
type BillingSyncError struct {
	OrderID string
	BillID  string
	Err     error
}

func (e *BillingSyncError) Error() string {
	return fmt.Sprintf("order %s saved but bill %s not updated: %v", e.OrderID, e.BillID, e.Err)
}

func (e *BillingSyncError) Unwrap() error { return e.Err }

// storeErr maps store failures onto service errors.
func storeErr(op, kind, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return &PersistenceError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

func IsInvalidTransition(err error) bool {
	var v *InvalidTransitionError
	return errors.As(err, &v)
}

func IsPersistence(err error) bool {
	var v *PersistenceError
	return errors.As(err, &v)
}

func IsBillingSync(err error) bool {
	var v *BillingSyncError
	return errors.As(err, &v)
}
