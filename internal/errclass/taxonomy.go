package errclass

// Failure is the full failure taxonomy of a turn, including the conditions
// that are not provider errors.
type Failure string

const (
	ExtractionFailure        Failure = "extraction_failure"
	EmptyOrIrrelevantContext Failure = "empty_or_irrelevant_context"
	MissingCredentialFailure Failure = "missing_credential"
	InvalidCredentialFailure Failure = "invalid_credential"
	BillingFailure           Failure = "billing"
	TokenLimitFailure        Failure = "token_limit_exceeded"
	TransportFailure         Failure = "transport_failure"
	CancelledByUser          Failure = "cancelled_by_user"
)

// Failure maps a classifier category onto the taxonomy. Unknown is the
// catch-all transport failure.
func (c Category) Failure() Failure {
	switch c {
	case MissingCredential:
		return MissingCredentialFailure
	case InvalidCredential:
		return InvalidCredentialFailure
	case Billing:
		return BillingFailure
	case TokenLimitExceeded:
		return TokenLimitFailure
	default:
		return TransportFailure
	}
}

var userMessages = map[Category]string{
	MissingCredential:  "No API key is configured. Enter one with /key <your-key> and ask again.",
	InvalidCredential:  "The API key was rejected by the provider. It has been cleared; enter a new one with /key <your-key>.",
	Billing:            "The provider refused the request because of a billing or quota problem on this account.",
	TokenLimitExceeded: "The request was too long for the model. Try a shorter question or load fewer documents.",
	Unknown:            "Something went wrong while contacting the model. Please try again.",
}

// UserMessage returns the fixed explanation shown in place of a failed answer.
func UserMessage(c Category) string {
	if msg, ok := userMessages[c]; ok {
		return msg
	}
	return userMessages[Unknown]
}
