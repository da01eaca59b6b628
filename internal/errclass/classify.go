// Package errclass maps raw provider and transport failures onto the small
// set of categories the UI knows how to explain.
package errclass

import (
	"errors"
	"strings"
)

// Category is the user-facing failure class of a turn.
type Category int

const (
	Unknown Category = iota
	MissingCredential
	InvalidCredential
	Billing
	TokenLimitExceeded
)

func (c Category) String() string {
	switch c {
	case MissingCredential:
		return "missing_credential"
	case InvalidCredential:
		return "invalid_credential"
	case Billing:
		return "billing"
	case TokenLimitExceeded:
		return "token_limit_exceeded"
	default:
		return "unknown"
	}
}

// MissingCredentialSentinel is the text carried by ErrMissingCredential.
const MissingCredentialSentinel = "credential missing"

// ErrMissingCredential is returned when no API key is available for a turn.
var ErrMissingCredential = errors.New(MissingCredentialSentinel)

// Result is the outcome of classification. MustReauthenticate tells the
// caller to drop any cached credential before the next turn.
type Result struct {
	Category           Category
	MustReauthenticate bool
}

type rule struct {
	category Category
	patterns []string
}

// Evaluated in order; the first match wins.
var rules = []rule{
	{MissingCredential, []string{MissingCredentialSentinel}},
	{InvalidCredential, []string{
		"api key not valid",
		"key not valid",
		"permission denied",
		"key invalid",
		"invalid api key",
		"incorrect api key",
		"invalid_api_key",
		"requested entity was not found",
	}},
	{Billing, []string{"billing", "insufficient_quota"}},
	{TokenLimitExceeded, []string{
		"token limit",
		"request too long",
		"prompt too long",
		"context_length_exceeded",
		"maximum context length",
	}},
}

// Classify inspects a raw error message, case-insensitively.
func Classify(raw string) Result {
	lower := strings.ToLower(raw)
	for _, r := range rules {
		for _, p := range r.patterns {
			if strings.Contains(lower, p) {
				return Result{Category: r.category, MustReauthenticate: r.category == InvalidCredential}
			}
		}
	}
	return Result{Category: Unknown}
}

// ClassifyError classifies err, recognising ErrMissingCredential anywhere in
// its chain before falling back to the message text.
func ClassifyError(err error) Result {
	if err == nil {
		return Result{Category: Unknown}
	}
	if errors.Is(err, ErrMissingCredential) {
		return Result{Category: MissingCredential}
	}
	return Classify(err.Error())
}
