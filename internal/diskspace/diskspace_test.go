package diskspace

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckAvailableSpace(t *testing.T) {
	target := filepath.Join(t.TempDir(), "S1.docx")

	t.Run("SmallFile", func(t *testing.T) {
		if err := CheckAvailableSpace(target, 4096, 1.15); err != nil {
			t.Errorf("Expected no error for small file, got: %v", err)
		}
	})

	t.Run("VeryLargeFile", func(t *testing.T) {
		// 100TB should exceed available space on most systems
		err := CheckAvailableSpace(target, 100*1024*1024*1024*1024, 1.15)
		if err == nil {
			t.Log("100TB check passed - system has extraordinary disk space")
		} else if !IsInsufficientSpaceError(err) {
			t.Errorf("Expected InsufficientSpaceError, got: %T", err)
		}
	})

	t.Run("MissingParentPasses", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "no", "such", "dir", "f")
		if err := CheckAvailableSpace(missing, 1<<62, 1.0); err != nil {
			t.Errorf("Expected unknown free space to pass, got: %v", err)
		}
	})
}

func TestIsInsufficientSpaceError(t *testing.T) {
	err := &InsufficientSpaceError{Path: "/tmp/S1.docx", RequiredBytes: 1000, AvailableBytes: 500}

	if !IsInsufficientSpaceError(err) {
		t.Error("Expected true for InsufficientSpaceError")
	}
	if !IsInsufficientSpaceError(fmt.Errorf("download: %w", err)) {
		t.Error("Expected true for wrapped InsufficientSpaceError")
	}
	if IsInsufficientSpaceError(fmt.Errorf("other")) {
		t.Error("Expected false for unrelated error")
	}
	if !strings.Contains(err.Error(), "/tmp/S1.docx") {
		t.Errorf("Expected error message to name the path, got %q", err.Error())
	}
}
