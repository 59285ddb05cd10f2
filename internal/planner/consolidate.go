package planner

import (
	"sort"

	"github.com/google/uuid"
)

// Consolidate сводит записи по одному счету в одну: суммирует суммы,
// склеивает обоснования через " + ", объединяет флаги и берет минимальный
// приоритет. Порядок результата — по возрастанию приоритета, при равенстве
// сохраняется порядок первого появления счета.
func Consolidate(entries []Entry) []Entry {
	merged := make([]Entry, 0, len(entries))
	index := make(map[uuid.UUID]int, len(entries))

	for _, entry := range entries {
		at, seen := index[entry.AccountID]
		if !seen {
			index[entry.AccountID] = len(merged)
			merged = append(merged, entry)
			continue
		}

		merged[at].AmountCents += entry.AmountCents
		merged[at].Rationale += " + " + entry.Rationale
		merged[at].WillReportZero = merged[at].WillReportZero || entry.WillReportZero
		if entry.Priority < merged[at].Priority {
			merged[at].Priority = entry.Priority
		}
		if merged[at].DueBy == nil {
			merged[at].DueBy = entry.DueBy
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Priority < merged[j].Priority
	})

	return merged
}
