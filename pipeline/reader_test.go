package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestReadURLs(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		"name,url",
		"latias,https://www.pricecharting.com/game/pokemon-surging-sparks/latias-ex-239",
		"bogus,not-a-url",
		"blank,",
		"upper,HTTPS://WWW.PRICECHARTING.COM/game/x/y",
	}, "\n"))

	urls, skipped, err := ReadURLs(path, "url")
	if err != nil {
		t.Fatalf("read urls: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("urls = %v, want 2 entries", urls)
	}
	if urls[0] != "https://www.pricecharting.com/game/pokemon-surging-sparks/latias-ex-239" {
		t.Fatalf("first url = %q", urls[0])
	}
	if len(skipped) != 1 || skipped[0] != "not-a-url" {
		t.Fatalf("skipped = %v, want [not-a-url]", skipped)
	}
}

func TestReadURLsMissingColumn(t *testing.T) {
	path := writeTempCSV(t, "name,link\ncard,https://www.pricecharting.com/game/x/y\n")

	_, _, err := ReadURLs(path, "url")
	if err == nil {
		t.Fatalf("expected missing column error")
	}
	for _, want := range []string{`"url"`, "name", "link"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %s", err.Error(), want)
		}
	}
}

func TestReadURLsMissingFile(t *testing.T) {
	if _, _, err := ReadURLs(filepath.Join(t.TempDir(), "absent.csv"), "url"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestIsPriceChartingURL(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{url: "https://www.pricecharting.com/game/x/y", expected: true},
		{url: "HTTPS://PRICECHARTING.COM/game", expected: true},
		{url: "https://example.com", expected: false},
		{url: "not-a-url", expected: false},
	}

	for _, tt := range tests {
		if got := IsPriceChartingURL(tt.url); got != tt.expected {
			t.Fatalf("IsPriceChartingURL(%q) = %v, want %v", tt.url, got, tt.expected)
		}
	}
}
