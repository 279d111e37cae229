package workflow

import "errors"

// Expected outcomes of workflow operations. The request layer maps these to
// HTTP statuses (ErrNotFound to 404, the rest to 409); anything else that
// comes out of the engine is an infrastructure fault.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrAlreadyConfirmed   = errors.New("participation already confirmed")
	ErrAlreadyConcluded   = errors.New("opportunity already concluded")
	ErrOwnershipViolation = errors.New("opportunity belongs to another promoter")
	ErrBenefitInactive    = errors.New("benefit is not active")
	ErrInsufficientPoints = errors.New("insufficient points")
)
