package handlers

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// TestPlanCacheKey проверяет формат ключа кэша плана.
func TestPlanCacheKey(t *testing.T) {
	userID := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000001")

	key := planCacheKey(userID, 3, 2026, 50000)
	want := "plan:a1b2c3d4-0000-0000-0000-000000000001:2026-03:50000"
	if key != want {
		t.Fatalf("expected %s, got %s", want, key)
	}

	if !strings.HasPrefix(key, planCachePrefix(userID)) {
		t.Fatal("expected key to start with user prefix")
	}
}

// TestWritePlanCSV проверяет выгрузку плана в CSV.
func TestWritePlanCSV(t *testing.T) {
	accountID := uuid.New()
	dueBy := "2026-03-10"
	response := PlanResponse{
		Allocations: []AllocationResponse{
			{
				AccountID:      accountID,
				AccountName:    "Chase Freedom",
				AmountCents:    2500,
				Rationale:      "Minimum payment required",
				DueBy:          &dueBy,
				WillReportZero: false,
				Priority:       1,
			},
		},
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writePlanCSV(writer, response); err != nil {
		t.Fatalf("writePlanCSV: %v", err)
	}
	writer.Flush()

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected header and one record, got %d rows", len(records))
	}
	record := records[1]
	if record[0] != accountID.String() {
		t.Fatalf("unexpected account_id: %s", record[0])
	}
	if record[2] != "2500" {
		t.Fatalf("unexpected amount_cents: %s", record[2])
	}
	if record[4] != dueBy {
		t.Fatalf("unexpected due_by: %s", record[4])
	}
	if record[5] != "false" {
		t.Fatalf("unexpected will_report_zero: %s", record[5])
	}
}
