package parser

import (
	"context"
	"strings"
	"testing"

	"example.com/payment-planner/backend/internal/models"
)

type stubClient struct {
	content string
	err     error
}

func (s *stubClient) Chat(ctx context.Context, messages []Message) (string, []byte, error) {
	return s.content, []byte(s.content), s.err
}

const validStatementJSON = `{
  "issuer": "CHASE",
  "account_last4": "4321",
  "account_type": "CARD",
  "period_start": "2026-01-05",
  "period_end": "2026-02-04",
  "close_date": "2026-02-04",
  "due_date": "2026-03-01",
  "credit_limit": 5000,
  "new_balance": 1234.56,
  "min_payment": 40,
  "aprs": [{"type": "purchase", "apr_pct": 23.99}],
  "transactions": [{"date": "2026-01-20", "description": "Payment", "amount": 100.10}],
  "notes": [],
  "missing": []
}`

// TestParseStatement проверяет извлечение и конвертацию выписки в центы.
func TestParseStatement(t *testing.T) {
	service := NewService(&stubClient{content: validStatementJSON})

	statement, _, err := service.ParseStatement(context.Background(), "statement text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if statement.Issuer != "CHASE" {
		t.Fatalf("unexpected issuer: %s", statement.Issuer)
	}
	if statement.AccountType != models.AccountTypeCard {
		t.Fatalf("unexpected account type: %s", statement.AccountType)
	}
	if statement.NewBalanceCents != 123456 {
		t.Fatalf("expected 123456 cents, got %d", statement.NewBalanceCents)
	}
	if statement.CreditLimitCents == nil || *statement.CreditLimitCents != 500000 {
		t.Fatalf("unexpected credit limit: %v", statement.CreditLimitCents)
	}
	if statement.MinPaymentCents == nil || *statement.MinPaymentCents != 4000 {
		t.Fatalf("unexpected min payment: %v", statement.MinPaymentCents)
	}
	if len(statement.Aprs) != 1 || statement.Aprs[0].AprPct != 23.99 {
		t.Fatalf("unexpected aprs: %v", statement.Aprs)
	}
	if len(statement.Transactions) != 1 || statement.Transactions[0].AmountCents != 10010 {
		t.Fatalf("unexpected transactions: %v", statement.Transactions)
	}
	if statement.DueDate == nil || !statement.DueDate.After(statement.CloseDate) {
		t.Fatalf("unexpected due date: %v", statement.DueDate)
	}
}

// TestParseStatementCodeFences проверяет снятие кодовых ограждений из ответа.
func TestParseStatementCodeFences(t *testing.T) {
	fenced := "```json\n" + validStatementJSON + "\n```"
	service := NewService(&stubClient{content: fenced})

	if _, _, err := service.ParseStatement(context.Background(), "statement text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestParseStatementInvalidPeriod проверяет отказ при перепутанных датах периода.
func TestParseStatementInvalidPeriod(t *testing.T) {
	swapped := strings.Replace(validStatementJSON, `"period_start": "2026-01-05"`, `"period_start": "2026-02-10"`, 1)
	service := NewService(&stubClient{content: swapped})

	if _, _, err := service.ParseStatement(context.Background(), "statement text"); err == nil {
		t.Fatal("expected error for period_start after period_end")
	}
}

// TestParseStatementUnknownType проверяет отказ на неизвестном типе счета.
func TestParseStatementUnknownType(t *testing.T) {
	mangled := strings.Replace(validStatementJSON, `"account_type": "CARD"`, `"account_type": "CRYPTO"`, 1)
	service := NewService(&stubClient{content: mangled})

	if _, _, err := service.ParseStatement(context.Background(), "statement text"); err == nil {
		t.Fatal("expected error for unknown account type")
	}
}

// TestParseStatementEmptyInput проверяет отказ на пустом тексте выписки.
func TestParseStatementEmptyInput(t *testing.T) {
	service := NewService(&stubClient{content: validStatementJSON})

	if _, _, err := service.ParseStatement(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty statement text")
	}
}

// TestExtractJSONNoPayload проверяет реакцию на ответ без JSON.
func TestExtractJSONNoPayload(t *testing.T) {
	if got := extractJSON("no json here"); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}

	var target statementWire
	if err := parseJSON("no json here", &target); err == nil {
		t.Fatal("expected error for missing json")
	}
}
