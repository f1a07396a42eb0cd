package validate

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected *ValidationError, got %v", err)
	}
	return ve.Kind
}

func TestName(t *testing.T) {
	if err := Name("Buy milk"); err != nil {
		t.Errorf("Expected valid name, got %v", err)
	}
	if err := Name(strings.Repeat("a", 50)); err != nil {
		t.Errorf("Expected 50-char name to be valid, got %v", err)
	}

	if kind := kindOf(t, Name("")); kind != KindEmptyName {
		t.Errorf("Expected EmptyName, got %s", kind)
	}
	if kind := kindOf(t, Name("   ")); kind != KindEmptyName {
		t.Errorf("Expected EmptyName for whitespace, got %s", kind)
	}
	if kind := kindOf(t, Name(strings.Repeat("a", 51))); kind != KindNameTooLong {
		t.Errorf("Expected NameTooLong, got %s", kind)
	}
}

func TestNameCountsCharactersNotBytes(t *testing.T) {
	// 30 two-byte characters are 60 bytes but well under the 50-character
	// limit.
	if err := Name(strings.Repeat("é", 30)); err != nil {
		t.Errorf("Expected 30-char multi-byte name to be valid, got %v", err)
	}
	if err := Name(strings.Repeat("é", 50)); err != nil {
		t.Errorf("Expected 50-char multi-byte name to be valid, got %v", err)
	}
	if kind := kindOf(t, Name(strings.Repeat("é", 51))); kind != KindNameTooLong {
		t.Errorf("Expected NameTooLong for 51 chars, got %s", kind)
	}
}

func TestDeadline(t *testing.T) {
	d, err := Deadline("2099-12-31", testNow)
	if err != nil {
		t.Fatalf("Expected far-future deadline to be valid, got %v", err)
	}
	if d.String() != "2099-12-31" {
		t.Errorf("Expected parsed date 2099-12-31, got %s", d)
	}

	// A deadline of today is valid: comparison is at date granularity.
	if _, err := Deadline("2025-06-15", testNow); err != nil {
		t.Errorf("Expected same-day deadline to be valid, got %v", err)
	}

	_, err = Deadline("2020-01-01", testNow)
	if kind := kindOf(t, err); kind != KindPastDeadline {
		t.Errorf("Expected PastDeadline, got %s", kind)
	}

	for _, bad := range []string{"", "tomorrow", "2025/06/20", "15-06-2025"} {
		_, err := Deadline(bad, testNow)
		if kind := kindOf(t, err); kind != KindBadFormat {
			t.Errorf("Deadline(%q): expected BadFormat, got %s", bad, kind)
		}
	}
}

func TestPriority(t *testing.T) {
	for _, s := range []string{"High", "Medium", "Low", ""} {
		p, err := Priority(s)
		if err != nil {
			t.Errorf("Priority(%q): expected valid, got %v", s, err)
		}
		if string(p) != s {
			t.Errorf("Priority(%q): got %q", s, p)
		}
	}

	_, err := Priority("urgent")
	if kind := kindOf(t, err); kind != KindInvalidPriority {
		t.Errorf("Expected InvalidPriority, got %s", kind)
	}
}

func TestStatus(t *testing.T) {
	for _, s := range []string{"Pending", "In Progress", "Completed"} {
		if _, err := Status(s); err != nil {
			t.Errorf("Status(%q): expected valid, got %v", s, err)
		}
	}

	_, err := Status("Deleted")
	if kind := kindOf(t, err); kind != KindInvalidStatus {
		t.Errorf("Expected InvalidStatus, got %s", kind)
	}
}

func TestNotes(t *testing.T) {
	if err := Notes(strings.Repeat("n", 250)); err != nil {
		t.Errorf("Expected 250-char notes to be valid, got %v", err)
	}
	if kind := kindOf(t, Notes(strings.Repeat("n", 251))); kind != KindNotesTooLong {
		t.Errorf("Expected NotesTooLong, got %s", kind)
	}

	// Limits are character counts, not byte counts.
	if err := Notes(strings.Repeat("ü", 250)); err != nil {
		t.Errorf("Expected 250-char multi-byte notes to be valid, got %v", err)
	}
	if kind := kindOf(t, Notes(strings.Repeat("ü", 251))); kind != KindNotesTooLong {
		t.Errorf("Expected NotesTooLong for 251 chars, got %s", kind)
	}
}

func TestReference(t *testing.T) {
	ids := map[int]struct{}{1: {}, 2: {}}

	if err := Reference("category", 2, ids); err != nil {
		t.Errorf("Expected known id to be valid, got %v", err)
	}
	if kind := kindOf(t, Reference("category", 9, ids)); kind != KindUnknownReference {
		t.Errorf("Expected UnknownReference, got %s", kind)
	}
}
