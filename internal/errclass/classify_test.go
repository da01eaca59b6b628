package errclass

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		raw    string
		want   Category
		reauth bool
	}{
		{"credential missing", MissingCredential, false},
		{"API key not valid. Please pass a valid API key.", InvalidCredential, true},
		{"PERMISSION DENIED: caller lacks access", InvalidCredential, true},
		{"the key invalid for project", InvalidCredential, true},
		{"Requested entity was not found", InvalidCredential, true},
		{`POST "https://api.openai.com/v1/chat/completions": 401 Unauthorized {"code":"invalid_api_key"}`, InvalidCredential, true},
		{"Billing account is disabled", Billing, false},
		{"You exceeded your current quota (insufficient_quota)", Billing, false},
		{"input exceeds the token limit", TokenLimitExceeded, false},
		{"Request too long", TokenLimitExceeded, false},
		{"prompt too long for model", TokenLimitExceeded, false},
		{"This model's maximum context length is 8192 tokens", TokenLimitExceeded, false},
		{"connection reset by peer", Unknown, false},
		{"", Unknown, false},
	}
	for _, tc := range cases {
		got := Classify(tc.raw)
		if got.Category != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.raw, got.Category, tc.want)
		}
		if got.MustReauthenticate != tc.reauth {
			t.Errorf("Classify(%q) reauth = %v, want %v", tc.raw, got.MustReauthenticate, tc.reauth)
		}
	}
}

func TestClassifyPrecedence(t *testing.T) {
	got := Classify("API key not valid; also check billing")
	if got.Category != InvalidCredential {
		t.Fatalf("expected InvalidCredential to win over Billing, got %v", got.Category)
	}
	got = Classify("billing issue: request too long")
	if got.Category != Billing {
		t.Fatalf("expected Billing to win over TokenLimitExceeded, got %v", got.Category)
	}
}

func TestClassifyErrorRecognisesSentinel(t *testing.T) {
	err := fmt.Errorf("open stream: %w", ErrMissingCredential)
	got := ClassifyError(err)
	if got.Category != MissingCredential || got.MustReauthenticate {
		t.Fatalf("unexpected result %+v", got)
	}
	if ClassifyError(nil).Category != Unknown {
		t.Fatalf("nil error should be Unknown")
	}
	if ClassifyError(errors.New("Requested entity was not found")).Category != InvalidCredential {
		t.Fatalf("expected InvalidCredential from error text")
	}
}

func TestCategoryFailureAndMessages(t *testing.T) {
	if Unknown.Failure() != TransportFailure {
		t.Fatalf("Unknown should map to TransportFailure")
	}
	for _, c := range []Category{Unknown, MissingCredential, InvalidCredential, Billing, TokenLimitExceeded} {
		if UserMessage(c) == "" {
			t.Errorf("no message for %v", c)
		}
	}
	if UserMessage(Category(99)) != UserMessage(Unknown) {
		t.Fatalf("unmapped category should fall back to the unknown message")
	}
}
