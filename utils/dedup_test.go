package utils

import "testing"

func TestSeenSet(t *testing.T) {
	s := NewSeenSet()

	if !s.Add("superbid", "superbid_1") {
		t.Error("first Add must return true")
	}
	if s.Add("superbid", "superbid_1") {
		t.Error("second Add of same key must return false")
	}
	if !s.Add("megaleiloes", "superbid_1") {
		t.Error("same external id under a different source is a distinct key")
	}

	if !s.Contains("superbid", "superbid_1") {
		t.Error("Contains must see an added key")
	}
	if s.Contains("superbid", "superbid_2") {
		t.Error("Contains must not see an unknown key")
	}
	if s.Size() != 2 {
		t.Errorf("Size = %d; want 2", s.Size())
	}
}
