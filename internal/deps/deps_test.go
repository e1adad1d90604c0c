package deps

import "testing"

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "shell", Command: "sh", Description: "posix shell"},
		{Name: "ghost", Command: "kantori-definitely-not-installed", Description: "missing tool"},
		{Name: "blank", Command: "  ", Description: "unset"},
	})
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available {
		t.Fatalf("expected sh to be available: %+v", statuses[0])
	}
	if statuses[1].Available || statuses[1].Detail == "" {
		t.Fatalf("expected ghost to be missing with detail: %+v", statuses[1])
	}
	if statuses[2].Available || statuses[2].Detail != "command not configured" {
		t.Fatalf("expected blank command to be reported: %+v", statuses[2])
	}

	missing := MissingRequired(statuses)
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing required tools, got %v", missing)
	}
}

func TestMissingRequiredSkipsOptional(t *testing.T) {
	missing := MissingRequired([]Status{
		{Name: "opt", Optional: true, Available: false},
		{Name: "req", Available: true},
	})
	if len(missing) != 0 {
		t.Fatalf("optional tools must not be required: %v", missing)
	}
}
