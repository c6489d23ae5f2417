package services

import "testing"

func TestNilTaxonomyUsesTagsVerbatim(t *testing.T) {
	var tax *Taxonomy

	if got := tax.StyleKeyword("streetwear"); got != "streetwear" {
		t.Fatalf("style keyword: got=%q want=%q", got, "streetwear")
	}
	if got := tax.ClothingKeyword("t-shirt"); got != "t-shirt" {
		t.Fatalf("clothing keyword: got=%q want=%q", got, "t-shirt")
	}
}

func TestTaxonomyFallsBackOnUnknownTags(t *testing.T) {
	tax := &Taxonomy{
		Styles:        map[string]string{"streetwear": "urban street style"},
		ClothingTypes: map[string]string{},
	}

	if got := tax.StyleKeyword(" Streetwear "); got != "urban street style" {
		t.Fatalf("mapped style: got=%q", got)
	}
	if got := tax.StyleKeyword("minimalist"); got != "minimalist" {
		t.Fatalf("unmapped style: got=%q", got)
	}
	if got := tax.ClothingKeyword("jacket"); got != "jacket" {
		t.Fatalf("unmapped clothing type: got=%q", got)
	}
}
