package lang

import "testing"

func TestRegion(t *testing.T) {
	cases := []struct {
		hint string
		want string
	}{
		{"", "wt-wt"},
		{"en", "us-en"},
		{"en-GB", "us-en"},
		{"pt-BR", "pt-pt"},
		{"de", "de-de"},
		{"ja", "jp-ja"},
		{"fi", "wt-wt"},
		{"not a tag!!", "wt-wt"},
	}
	for _, tc := range cases {
		if got := Region(tc.hint); got != tc.want {
			t.Errorf("Region(%q) = %q, want %q", tc.hint, got, tc.want)
		}
	}
}
