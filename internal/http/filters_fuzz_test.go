package httpserver

import (
	"net/url"
	"testing"
)

func FuzzBuildPostFilters(f *testing.F) {
	seeds := []string{
		"owner=alice&limit=20",
		"limit=abc",
		"cursor=eyJmb28iOiJiYXIifQ==",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		_, _ = buildPostFilters(values)
	})
}
