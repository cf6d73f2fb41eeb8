package services

import (
	"errors"
	"fmt"
)

// ErrSchemeNotFound reports a missing numbering scheme row. This is a
// provisioning problem for an operator, never retried.
var ErrSchemeNotFound = errors.New("numbering scheme not found")

// TransitionError reports a status change the state machine does not allow.
// The document is left unchanged.
type TransitionError struct {
	Document string
	From, To string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition %s -> %s", e.Document, e.From, e.To)
}

// SourceStateError reports an operation (typically a conversion) attempted
// against a document whose status disallows it. No write is performed.
type SourceStateError struct {
	Document string
	Status   string
}

func (e *SourceStateError) Error() string {
	return fmt.Sprintf("%s in status %q does not allow this operation", e.Document, e.Status)
}

// OverDeliveryError names the sales-order line whose remaining quantity the
// request exceeds. No write is performed.
type OverDeliveryError struct {
	SalesOrderItemID uint
	Requested        float64
	Remaining        float64
}

func (e *OverDeliveryError) Error() string {
	return fmt.Sprintf("over-delivery on line %d: requested %g, remaining %g",
		e.SalesOrderItemID, e.Requested, e.Remaining)
}
