package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"example.com/payment-planner/backend/internal/models"
)

const dateLayout = "2006-01-02"

const systemPrompt = `You are a financial document parser that converts bank, credit card, and loan PDF statements into structured JSON data.

CRITICAL INSTRUCTIONS:
1. Extract data EXACTLY as it appears in the document
2. Never invent or estimate values - if a field is missing, return null and add to "missing" array
3. For dates, use ISO format (YYYY-MM-DD)
4. For amounts, use positive numbers for credits/payments, negative for debits/charges
5. Be precise with account identification (last 4 digits, issuer name)
6. Capture ALL APR information found in the document
7. Identify any promotional offers or special terms

VALIDATION RULES:
- period_start must be before period_end
- close_date should be at or after period_end
- due_date should be after close_date (if present)
- new_balance should match the statement balance
- Transaction amounts should be consistent with statement math

If you cannot parse the document or it's not a financial statement, return an error in the "notes" field.`

// Apr — одна процентная ставка из выписки.
type Apr struct {
	Type   string  `json:"type"`
	AprPct float64 `json:"apr_pct"`
}

// ParsedTransaction — операция из выписки, суммы в центах.
type ParsedTransaction struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
}

// ParsedStatement — провалидированная выписка с денежными полями в центах.
type ParsedStatement struct {
	Issuer           string              `json:"issuer"`
	AccountLast4     *string             `json:"account_last4,omitempty"`
	AccountType      models.AccountType  `json:"account_type"`
	PeriodStart      time.Time           `json:"period_start"`
	PeriodEnd        time.Time           `json:"period_end"`
	CloseDate        time.Time           `json:"close_date"`
	DueDate          *time.Time          `json:"due_date,omitempty"`
	CreditLimitCents *int64              `json:"credit_limit_cents,omitempty"`
	NewBalanceCents  int64               `json:"new_balance_cents"`
	MinPaymentCents  *int64              `json:"min_payment_cents,omitempty"`
	Aprs             []Apr               `json:"aprs"`
	Transactions     []ParsedTransaction `json:"transactions"`
	Notes            []string            `json:"notes,omitempty"`
	Missing          []string            `json:"missing,omitempty"`
}

// statementWire — сырой ответ модели, суммы в долларах как в документе.
type statementWire struct {
	Issuer       string   `json:"issuer"`
	AccountLast4 *string  `json:"account_last4"`
	AccountType  string   `json:"account_type"`
	PeriodStart  string   `json:"period_start"`
	PeriodEnd    string   `json:"period_end"`
	CloseDate    string   `json:"close_date"`
	DueDate      *string  `json:"due_date"`
	CreditLimit  *float64 `json:"credit_limit"`
	NewBalance   float64  `json:"new_balance"`
	MinPayment   *float64 `json:"min_payment"`
	Aprs         []Apr    `json:"aprs"`
	Transactions []struct {
		Date        string  `json:"date"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	} `json:"transactions"`
	Notes   []string `json:"notes"`
	Missing []string `json:"missing"`
}

type Service struct {
	client Client
}

// NewService создает сервис извлечения данных из выписок.
func NewService(client Client) *Service {
	return &Service{client: client}
}

// ParseStatement извлекает структурированные данные из текста выписки
// и валидирует ответ модели.
func (s *Service) ParseStatement(ctx context.Context, statementText string) (ParsedStatement, []byte, error) {
	if strings.TrimSpace(statementText) == "" {
		return ParsedStatement{}, nil, errors.New("statement text is empty")
	}

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Parse this financial statement and return structured JSON according to the schema:\n\n" + statementText},
	}

	content, raw, err := s.client.Chat(ctx, messages)
	if err != nil {
		return ParsedStatement{}, raw, err
	}

	var wire statementWire
	if err := parseJSON(content, &wire); err != nil {
		return ParsedStatement{}, raw, err
	}

	statement, err := validateStatement(wire)
	if err != nil {
		return ParsedStatement{}, raw, err
	}

	return statement, raw, nil
}

func validateStatement(wire statementWire) (ParsedStatement, error) {
	var statement ParsedStatement

	if strings.TrimSpace(wire.Issuer) == "" {
		return statement, errors.New("statement issuer is required")
	}

	accountType := models.AccountType(strings.ToUpper(strings.TrimSpace(wire.AccountType)))
	switch accountType {
	case models.AccountTypeCard, models.AccountTypeBank, models.AccountTypeLoan:
	default:
		return statement, fmt.Errorf("unknown account type %q", wire.AccountType)
	}

	periodStart, err := parseDate(wire.PeriodStart, "period_start")
	if err != nil {
		return statement, err
	}

	periodEnd, err := parseDate(wire.PeriodEnd, "period_end")
	if err != nil {
		return statement, err
	}

	closeDate, err := parseDate(wire.CloseDate, "close_date")
	if err != nil {
		return statement, err
	}

	if !periodStart.Before(periodEnd) {
		return statement, errors.New("period_start must be before period_end")
	}
	if closeDate.Before(periodEnd) {
		return statement, errors.New("close_date must be at or after period_end")
	}

	var dueDate *time.Time
	if wire.DueDate != nil {
		parsed, err := parseDate(*wire.DueDate, "due_date")
		if err != nil {
			return statement, err
		}
		if !parsed.After(closeDate) {
			return statement, errors.New("due_date must be after close_date")
		}
		dueDate = &parsed
	}

	statement = ParsedStatement{
		Issuer:          strings.TrimSpace(wire.Issuer),
		AccountLast4:    wire.AccountLast4,
		AccountType:     accountType,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		CloseDate:       closeDate,
		DueDate:         dueDate,
		NewBalanceCents: toCents(wire.NewBalance),
		Aprs:            wire.Aprs,
		Notes:           wire.Notes,
		Missing:         wire.Missing,
	}

	if wire.CreditLimit != nil {
		limitCents := toCents(*wire.CreditLimit)
		statement.CreditLimitCents = &limitCents
	}
	if wire.MinPayment != nil {
		minCents := toCents(*wire.MinPayment)
		statement.MinPaymentCents = &minCents
	}

	for _, apr := range wire.Aprs {
		if apr.AprPct < 0 {
			return ParsedStatement{}, errors.New("apr_pct must be non-negative")
		}
	}

	for _, transaction := range wire.Transactions {
		postedAt, err := parseDate(transaction.Date, "transaction date")
		if err != nil {
			return ParsedStatement{}, err
		}
		statement.Transactions = append(statement.Transactions, ParsedTransaction{
			Date:        postedAt,
			Description: transaction.Description,
			AmountCents: toCents(transaction.Amount),
		})
	}

	return statement, nil
}

func parseDate(value, field string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an ISO date: %w", field, err)
	}

	return parsed, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func parseJSON(input string, target interface{}) error {
	payload := extractJSON(input)
	if payload == "" {
		return errors.New("parser response does not contain json")
	}

	return json.Unmarshal([]byte(payload), target)
}

func extractJSON(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(strings.TrimSpace(trimmed), "json")
		trimmed = strings.TrimSpace(trimmed)
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}

	return trimmed[start : end+1]
}
