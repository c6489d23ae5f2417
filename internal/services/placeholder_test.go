package services

import "testing"

func TestProductInitials(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"blue denim jacket", "BD"},
		{"tee", "T"},
		{"Éclair dress", "ÉD"},
		{"日本 shirt", "日S"},
		{"", "?"},
		{"   ", "?"},
	}
	for _, c := range cases {
		if got := productInitials(c.title); got != c.want {
			t.Fatalf("initials(%q): got=%q want=%q", c.title, got, c.want)
		}
	}
}
