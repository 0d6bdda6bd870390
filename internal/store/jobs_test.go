package store

import (
	"strings"
	"testing"
	"time"

	"github.com/jobsphere/ms-job/internal/job"
)

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func TestBuildJobUpdateStampsUpdatedAtOnly(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	query, args := buildJobUpdate("src-1", job.Patch{}, ts)

	if want := "update job_offers set updated_at = $1 where id = $2"; query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if len(args) != 2 || args[0] != ts || args[1] != "src-1" {
		t.Fatalf("args = %#v", args)
	}
}

func TestBuildJobUpdateIncludesOnlyPresentFields(t *testing.T) {
	ts := time.Now().UTC()
	patch := job.Patch{
		Title:  strptr("New title"),
		Active: boolptr(false),
	}

	query, args := buildJobUpdate("src-2", patch, ts)

	for _, want := range []string{"updated_at = $1", "title = $2", "active = $3", "where id = $4"} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
	for _, absent := range []string{"description", "requirements", "location", "salary_range"} {
		if strings.Contains(query, absent) {
			t.Errorf("query %q must not touch %q", query, absent)
		}
	}
	if len(args) != 4 {
		t.Fatalf("args = %#v", args)
	}
	if args[1] != "New title" || args[2] != false || args[3] != "src-2" {
		t.Fatalf("args = %#v", args)
	}
}

func TestBuildJobUpdateFullPatch(t *testing.T) {
	patch := job.Patch{
		Title:        strptr("t"),
		Description:  strptr("d"),
		Requirements: []string{"go", "sql"},
		Location:     strptr("Madrid"),
		SalaryRange:  strptr("40-50k"),
		Active:       boolptr(true),
	}

	query, args := buildJobUpdate("src-3", patch, time.Now())

	for _, want := range []string{"title", "description", "requirements", "location", "salary_range", "active"} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing column %q", query, want)
		}
	}
	// updated_at + six columns + id
	if len(args) != 8 {
		t.Fatalf("expected 8 args, got %d: %#v", len(args), args)
	}
}

func TestPatchIsZero(t *testing.T) {
	if !(job.Patch{}).IsZero() {
		t.Error("empty patch should be zero")
	}
	if (job.Patch{Title: strptr("x")}).IsZero() {
		t.Error("patch with title should not be zero")
	}
	if (job.Patch{Requirements: []string{}}).IsZero() {
		t.Error("patch with explicit empty requirements should not be zero")
	}
}
