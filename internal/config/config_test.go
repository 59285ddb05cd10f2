package config

import (
	"reflect"
	"testing"
)

// TestParseCSVEnv проверяет разбор списка email из ENV.
func TestParseCSVEnv(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", " Admin@example.com, ,USER@Example.com ")

	got := parseCSVEnv("ADMIN_EMAILS")
	want := []string{"admin@example.com", "user@example.com"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestParseIssuersEnv проверяет разбор списка банков с приведением к верхнему регистру.
func TestParseIssuersEnv(t *testing.T) {
	t.Setenv("PLANNER_PREFERRED_ISSUERS", " chase, ,CapitalOne ")

	got := parseIssuersEnv("PLANNER_PREFERRED_ISSUERS")
	want := []string{"CHASE", "CAPITALONE"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestParseCentsEnv проверяет разбор денежных значений в центах.
func TestParseCentsEnv(t *testing.T) {
	t.Setenv("PLANNER_OVERLIMIT_BUFFER_CENTS", "2500")

	got, err := parseCentsEnv("PLANNER_OVERLIMIT_BUFFER_CENTS", 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2500 {
		t.Fatalf("expected 2500, got %d", got)
	}

	if fallback, err := parseCentsEnv("MISSING_CENTS_ENV", 1000); err != nil || fallback != 1000 {
		t.Fatalf("expected fallback 1000, got %d (%v)", fallback, err)
	}

	t.Setenv("PLANNER_OVERLIMIT_BUFFER_CENTS", "-5")
	if _, err := parseCentsEnv("PLANNER_OVERLIMIT_BUFFER_CENTS", 1000); err == nil {
		t.Fatal("expected error for negative cents")
	}
}

// TestParseCSVEnvMissing проверяет поведение при отсутствии переменной.
func TestParseCSVEnvMissing(t *testing.T) {
	got := parseCSVEnv("MISSING_ENV")
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
