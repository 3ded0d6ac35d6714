package entity

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestReservationOverlaps(t *testing.T) {
	r := &Reservation{StartDate: day("2026-09-10"), EndDate: day("2026-09-15")}

	cases := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"contained", "2026-09-12", "2026-09-14", true},
		{"covers", "2026-09-01", "2026-09-30", true},
		{"left overlap", "2026-09-05", "2026-09-10", true},
		{"right overlap", "2026-09-15", "2026-09-20", true},
		{"shared boundary day counts", "2026-09-15", "2026-09-15", true},
		{"before", "2026-09-01", "2026-09-09", false},
		{"after", "2026-09-16", "2026-09-20", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := r.Overlaps(day(c.start), day(c.end)); got != c.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", c.start, c.end, got, c.want)
			}
		})
	}
}

func TestSpanDays(t *testing.T) {
	if got := SpanDays(day("2026-09-01"), day("2026-09-01")); got != 1 {
		t.Errorf("single day span = %d, want 1", got)
	}
	if got := SpanDays(day("2026-09-01"), day("2026-09-30")); got != 30 {
		t.Errorf("month span = %d, want 30", got)
	}
}

func TestDateOnlyNormalizesToMidnightUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	in := time.Date(2026, 9, 10, 23, 30, 0, 0, loc) // 15:30 UTC
	got := DateOnly(in)
	want := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOnly = %v, want %v", got, want)
	}
}

func TestLoanTransitions(t *testing.T) {
	allowed := func(from, to string) bool {
		for _, s := range ValidLoanTransitions[from] {
			if s == to {
				return true
			}
		}
		return false
	}

	if !allowed(LoanStatusPending, LoanStatusApproved) {
		t.Error("pending -> approved should be allowed")
	}
	if !allowed(LoanStatusOverdue, LoanStatusReturned) {
		t.Error("overdue -> returned should be allowed")
	}
	if allowed(LoanStatusReturned, LoanStatusApproved) {
		t.Error("returned is terminal")
	}
	if allowed(LoanStatusPending, LoanStatusOverdue) {
		t.Error("pending cannot go overdue directly")
	}
}

func TestIncidentTransitionsReopen(t *testing.T) {
	targets := ValidIncidentTransitions[IncidentStatusClosed]
	if len(targets) != 2 {
		t.Fatalf("closed should reopen to two states, got %v", targets)
	}
	for _, to := range targets {
		if to != IncidentStatusReported && to != IncidentStatusInReview {
			t.Errorf("unexpected reopen target %s", to)
		}
	}
}

func TestMaintenanceDaysUntilScheduled(t *testing.T) {
	m := &Maintenance{ScheduledDate: day("2026-09-10")}

	if got := m.DaysUntilScheduled(day("2026-09-05")); got != 5 {
		t.Errorf("5 days out = %d, want 5", got)
	}
	if got := m.DaysUntilScheduled(day("2026-09-10")); got != 0 {
		t.Errorf("same day = %d, want 0", got)
	}
	if got := m.DaysUntilScheduled(day("2026-09-13")); got != -3 {
		t.Errorf("3 days past = %d, want -3", got)
	}
}
