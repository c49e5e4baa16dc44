package model

import (
	"errors"
	"testing"
	"time"
)

func TestTaskValidateSuccess(t *testing.T) {
	task := Task{Title: "Pay rent", Emoji: "🏠"}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateRejectsBlankTitle(t *testing.T) {
	task := Task{Title: "   ", Emoji: "🏠"}
	if err := task.Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got: %v", err)
	}

	task.Title = "ok"
	task.Emoji = ""
	if err := task.Validate(); !errors.Is(err, ErrMissingEmoji) {
		t.Fatalf("expected ErrMissingEmoji, got: %v", err)
	}
}

func TestTaskOverdue(t *testing.T) {
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	task := Task{ID: "t1", Title: "late", Emoji: "📝", DueAt: &past}
	if !task.Overdue(now) {
		t.Fatal("expected open past-due task to be overdue")
	}
	task.Done = true
	if task.Overdue(now) {
		t.Fatal("completed task must never be overdue")
	}
	task.Done = false
	task.DueAt = nil
	if task.Overdue(now) {
		t.Fatal("undated task must never be overdue")
	}
}

func TestTaskPatchApply(t *testing.T) {
	due := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	task := Task{ID: "t1", Title: "draft", Emoji: "📝", DueAt: &due, Notes: "n"}

	title := "  final  "
	done := true
	out := TaskPatch{Title: &title, Done: &done}.Apply(task)
	if out.Title != "final" || !out.Done || out.DueAt == nil {
		t.Fatalf("unexpected patched task: %+v", out)
	}

	cleared := TaskPatch{ClearDue: true, DueAt: &due}.Apply(task)
	if cleared.DueAt != nil {
		t.Fatalf("expected ClearDue to win over DueAt, got %v", cleared.DueAt)
	}
	if task.DueAt == nil {
		t.Fatal("Apply must not mutate the original task")
	}
}

func TestTaskPatchTouchesSchedule(t *testing.T) {
	notes := "more"
	if (TaskPatch{Notes: &notes}).TouchesSchedule() {
		t.Fatal("notes-only patch must not touch reminders")
	}
	if !(TaskPatch{ClearDue: true}).TouchesSchedule() {
		t.Fatal("clearing the due date must touch reminders")
	}
	if !(TaskPatch{}).IsEmpty() {
		t.Fatal("zero patch should be empty")
	}
}
