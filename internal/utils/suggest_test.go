package utils

import "testing"

func TestSuggest(t *testing.T) {
	sections := []string{"Anime Shows", "Anime Movies", "Music"}

	if got := Suggest("anime show", sections); got != "Anime Shows" {
		t.Errorf("expected Anime Shows, got %q", got)
	}
	if got := Suggest("Documentaries", sections); got != "" {
		t.Errorf("expected no suggestion, got %q", got)
	}
	if got := Suggest("Anime Shows", nil); got != "" {
		t.Errorf("expected no suggestion without candidates, got %q", got)
	}
}
