package services

import "testing"

func TestPlayerSearchRejectsEmptyQuery(t *testing.T) {
	svc := NewPlayerService(nil, testLogger())

	if _, err := svc.Search("", ""); err == nil {
		t.Error("Expected error for empty query")
	}
	if _, err := svc.Search("   ", "boca"); err == nil {
		t.Error("Expected error for whitespace-only query")
	}
}
