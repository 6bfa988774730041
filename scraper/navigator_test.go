package scraper

import "testing"

func TestDetailURL(t *testing.T) {
	cases := []struct {
		href string
		want string
	}{
		{
			"/fr/triplex~a-vendre~montreal-rosemont/12345",
			"https://www.centris.ca/fr/triplex~a-vendre~montreal-rosemont/12345?view=Summary",
		},
		{
			"/fr/duplex~a-vendre~laval/67890?view=Summary",
			"https://www.centris.ca/fr/duplex~a-vendre~laval/67890?view=Summary",
		},
		{
			"/fr/duplex~a-vendre~laval/67890?uc=1",
			"https://www.centris.ca/fr/duplex~a-vendre~laval/67890?uc=1&view=Summary",
		},
	}
	for _, tc := range cases {
		if got := detailURL(tc.href); got != tc.want {
			t.Errorf("detailURL(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}
