package main

import (
	"strings"
	"testing"
)

func TestRunAdminUnknownCommand(t *testing.T) {
	err := runAdmin([]string{"frobnicate"})
	if err == nil || !strings.Contains(err.Error(), "unknown admin command") {
		t.Fatalf("expected an unknown-command error, got %v", err)
	}
}

func TestRunAdminHelp(t *testing.T) {
	if err := runAdmin([]string{"help"}); err != nil {
		t.Fatalf("help must not fail: %v", err)
	}
}

func TestMigrateDownRejectsBadSteps(t *testing.T) {
	// Validation runs before any database work, so no directory is needed.
	err := runAdminMigrateDown([]string{"-steps", "0"})
	if err == nil || !strings.Contains(err.Error(), "--steps") {
		t.Fatalf("expected a steps validation error, got %v", err)
	}
}
