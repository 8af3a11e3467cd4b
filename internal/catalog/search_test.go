package catalog

import (
	"slices"
	"testing"
)

func TestSearch(t *testing.T) {
	c := Default()

	t.Run("EmptyQuerySuggestsFirstSix", func(t *testing.T) {
		got := c.Search("  ")
		if len(got) != 6 {
			t.Fatalf("Expected 6 suggestions, got %d", len(got))
		}
		if got[0].ID != "masala-dosa" {
			t.Errorf("Expected first suggestion 'masala-dosa', got '%s'", got[0].ID)
		}
	})

	t.Run("ByName", func(t *testing.T) {
		got := c.Search("DOSA")
		if want := []string{"masala-dosa"}; !slices.Equal(ids(got), want) {
			t.Errorf("Expected %v, got %v", want, ids(got))
		}
	})

	t.Run("ByTag", func(t *testing.T) {
		got := c.Search("vegan")
		if want := []string{"idli", "puchka"}; !slices.Equal(ids(got), want) {
			t.Errorf("Expected %v, got %v", want, ids(got))
		}
	})

	t.Run("ByRegion", func(t *testing.T) {
		got := c.Search("south")
		if want := []string{"masala-dosa", "idli"}; !slices.Equal(ids(got), want) {
			t.Errorf("Expected %v, got %v", want, ids(got))
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		if got := c.Search("sushi"); len(got) != 0 {
			t.Errorf("Expected no matches, got %v", ids(got))
		}
	})

	t.Run("CappedAtEight", func(t *testing.T) {
		// every built-in dish matches "a"
		if got := c.Search("a"); len(got) != 8 {
			t.Errorf("Expected 8 results, got %d", len(got))
		}
	})
}

func TestRegional(t *testing.T) {
	c := Default()

	got := c.Regional("North", "", false)
	if want := []string{"dal-makhani", "rogan-josh"}; !slices.Equal(ids(got), want) {
		t.Errorf("Expected %v, got %v", want, ids(got))
	}

	got = c.Regional("north", "kashmir", false)
	if want := []string{"rogan-josh"}; !slices.Equal(ids(got), want) {
		t.Errorf("Expected %v, got %v", want, ids(got))
	}

	got = c.Regional("North", "", true)
	if want := []string{"dal-makhani"}; !slices.Equal(ids(got), want) {
		t.Errorf("Expected %v, got %v", want, ids(got))
	}

	got = c.Regional("East", "", true)
	if want := []string{"puchka"}; !slices.Equal(ids(got), want) {
		t.Errorf("Expected vegan dish to count as vegetarian-friendly, got %v", ids(got))
	}

	if !IsRegion("central") || IsRegion("Atlantis") {
		t.Error("IsRegion returned an unexpected answer")
	}
}
