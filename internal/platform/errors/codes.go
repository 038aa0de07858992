// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeValidationUserEmpty     Code = "VALIDATION_USER_EMPTY"
	CodeValidationListTypeEmpty Code = "VALIDATION_LIST_TYPE_EMPTY"
	CodeValidationListEmpty     Code = "VALIDATION_LIST_EMPTY"
	CodeValidationEmailEmpty    Code = "VALIDATION_EMAIL_EMPTY"
	CodeValidationEmailInvalid  Code = "VALIDATION_EMAIL_INVALID"
	CodeValidationCodeEmpty     Code = "VALIDATION_CODE_EMPTY"
	CodeValidationSessionEmpty  Code = "VALIDATION_SESSION_EMPTY"

	// Precondition errors
	CodeAlreadyMember  Code = "ALREADY_MEMBER"
	CodeAlreadyInvited Code = "ALREADY_INVITED"

	// Access errors
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Advisory conditions
	CodeNoOwner Code = "NO_OWNER"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeValidationUserEmpty,
		CodeValidationListTypeEmpty,
		CodeValidationListEmpty,
		CodeValidationEmailEmpty,
		CodeValidationEmailInvalid,
		CodeValidationCodeEmpty,
		CodeValidationSessionEmpty:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeAlreadyMember,
		CodeAlreadyInvited,
		CodeNoOwner:
		return codes.FailedPrecondition

	// PermissionDenied - caller is not the resource owner/recipient
	case CodeUnauthorized:
		return codes.PermissionDenied

	// NotFound - referenced aggregate absent
	case CodeNotFound:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
