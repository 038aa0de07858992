package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeValidationUserEmpty     = "VALIDATION_USER_EMPTY"
	CodeValidationListTypeEmpty = "VALIDATION_LIST_TYPE_EMPTY"
	CodeValidationListEmpty     = "VALIDATION_LIST_EMPTY"
	CodeValidationEmailEmpty    = "VALIDATION_EMAIL_EMPTY"
	CodeValidationEmailInvalid  = "VALIDATION_EMAIL_INVALID"
	CodeValidationCodeEmpty     = "VALIDATION_CODE_EMPTY"
	CodeValidationSessionEmpty  = "VALIDATION_SESSION_EMPTY"
	CodeAlreadyMember           = "ALREADY_MEMBER"
	CodeAlreadyInvited          = "ALREADY_INVITED"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeNotFound                = "NOT_FOUND"
	CodeNoOwner                 = "NO_OWNER"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Validation errors
		CodeValidationUserEmpty:     "User cannot be empty",
		CodeValidationListTypeEmpty: "List type cannot be empty",
		CodeValidationListEmpty:     "List cannot be empty",
		CodeValidationEmailEmpty:    "Email address cannot be empty",
		CodeValidationEmailInvalid:  "Email address is not valid",
		CodeValidationCodeEmpty:     "Invitation code cannot be empty",
		CodeValidationSessionEmpty:  "Session cannot be empty",

		// Precondition errors
		CodeAlreadyMember:  "This person is already a member of the list",
		CodeAlreadyInvited: "This person has already been invited to the list",

		// Access errors
		CodeUnauthorized: "You are not allowed to perform this action",

		// Storage errors
		CodeNotFound: "The requested resource was not found",

		// Advisory conditions
		CodeNoOwner: "The list {{.List}} has no owner to receive the request",
	},
}
