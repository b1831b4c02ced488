package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestExtractCardName(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
		wantErr  bool
	}{
		{
			name:     "h1 with set suffix",
			html:     `<html><body><h1>Latias ex #239 Pokemon Surging Sparks</h1></body></html>`,
			expected: "Latias ex #239",
		},
		{
			name:     "h1 without suffix",
			html:     `<html><body><h1>Charizard #4</h1></body></html>`,
			expected: "Charizard #4",
		},
		{
			name:     "title fallback",
			html:     `<html><head><title>Pikachu #58 Pokemon Base Set</title></head><body></body></html>`,
			expected: "Pikachu #58",
		},
		{
			name:     "h1 with surrounding whitespace",
			html:     "<html><body><h1>\n  Mewtwo #150   Pokemon Base Set\n</h1></body></html>",
			expected: "Mewtwo #150",
		},
		{
			name:    "no h1 and no title",
			html:    `<html><body><p>nothing here</p></body></html>`,
			wantErr: true,
		},
		{
			name:    "empty h1",
			html:    `<html><body><h1></h1></body></html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := extractCardName(mustDoc(t, tt.html))
			if tt.wantErr {
				if err != ErrNameNotFound {
					t.Fatalf("expected ErrNameNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.expected {
				t.Fatalf("name = %q, want %q", name, tt.expected)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		absent   bool
	}{
		{name: "dollar with thousands", input: "$1,234.56", expected: 1234.56},
		{name: "plain number", input: "1234.56", expected: 1234.56},
		{name: "dollar no cents", input: "$420", expected: 420},
		{name: "dash marker", input: "-", absent: true},
		{name: "dash with whitespace", input: "  -  ", absent: true},
		{name: "empty", input: "", absent: true},
		{name: "garbage", input: "abc", absent: true},
		{name: "symbol only", input: "$", absent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.input)
			if tt.absent {
				if got != nil {
					t.Fatalf("ParsePrice(%q) = %v, want absent", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParsePrice(%q) = absent, want %v", tt.input, tt.expected)
			}
			if *got != tt.expected {
				t.Fatalf("ParsePrice(%q) = %v, want %v", tt.input, *got, tt.expected)
			}
		})
	}
}

func TestFormatPriceRoundTrip(t *testing.T) {
	tests := []float64{420.0, 146.64, 1234.56, 0.5}

	for _, value := range tests {
		v := value
		formatted := FormatPrice(&v)
		reparsed := ParsePrice(formatted)
		if reparsed == nil || *reparsed != value {
			t.Fatalf("round trip of %v via %q = %v", value, formatted, reparsed)
		}
	}

	if got := FormatPrice(nil); got != "" {
		t.Fatalf("FormatPrice(nil) = %q, want empty", got)
	}
}

func TestHeaderTablePrice(t *testing.T) {
	html := `<html><body><table>
		<tr><th>Ungraded</th><th>Grade 9</th><th>PSA 10</th></tr>
		<tr><td>$146.64 +$2.10</td><td>$250.00 (-$1.00)</td><td>$420.00 +$5.00</td></tr>
	</table></body></html>`
	doc := mustDoc(t, html)

	if got := ExtractGradePrice(doc, GradeUngraded); got == nil || *got != 146.64 {
		t.Fatalf("ungraded = %v, want 146.64", got)
	}
	if got := ExtractGradePrice(doc, GradePSA10); got == nil || *got != 420.00 {
		t.Fatalf("psa10 = %v, want 420.00", got)
	}
}

func TestHeaderTablePriceIgnoresShortTables(t *testing.T) {
	html := `<html><body>
		<table><tr><th>Ungraded</th></tr></table>
		<table>
			<tr><th>Ungraded</th></tr>
			<tr><td>$99.99</td></tr>
		</table>
	</body></html>`
	doc := mustDoc(t, html)

	if got := ExtractGradePrice(doc, GradeUngraded); got == nil || *got != 99.99 {
		t.Fatalf("ungraded = %v, want 99.99", got)
	}
}

func TestTwoColumnPrice(t *testing.T) {
	html := `<html><body><table>
		<tr><td>Grade 8</td><td>$100.00</td></tr>
		<tr><td>psa 10</td><td>$420.00</td></tr>
		<tr><td>Ungraded</td><td>$146.64</td></tr>
	</table></body></html>`
	doc := mustDoc(t, html)

	if got := ExtractGradePrice(doc, GradePSA10); got == nil || *got != 420.00 {
		t.Fatalf("psa10 = %v, want 420.00 (case-insensitive exact match)", got)
	}
	if got := ExtractGradePrice(doc, GradeUngraded); got == nil || *got != 146.64 {
		t.Fatalf("ungraded = %v, want 146.64", got)
	}
	if got := ExtractGradePrice(doc, "Grade 9"); got != nil {
		t.Fatalf("grade 9 = %v, want absent", *got)
	}
}

func TestTwoColumnDashTerminatesCascade(t *testing.T) {
	html := `<html><body>
		<table>
			<tr><td>Ungraded</td><td>$146.64</td></tr>
			<tr><td>PSA 10</td><td>-</td></tr>
		</table>
		<div>PSA 10 <span class="price">$999.99</span></div>
	</body></html>`
	doc := mustDoc(t, html)

	if got := ExtractGradePrice(doc, GradePSA10); got != nil {
		t.Fatalf("psa10 = %v, want absent (dash in the matched row wins over later spans)", *got)
	}
	if got := ExtractGradePrice(doc, GradeUngraded); got == nil || *got != 146.64 {
		t.Fatalf("ungraded = %v, want 146.64", got)
	}
}

func TestPriceSpanFallback(t *testing.T) {
	html := `<html><body>
		<div><span class="price">$146.64</span></div>
		<div>PSA 10 <span class="js-price">$420.00</span></div>
	</body></html>`
	doc := mustDoc(t, html)

	if got := ExtractGradePrice(doc, GradeUngraded); got == nil || *got != 146.64 {
		t.Fatalf("ungraded = %v, want first span 146.64", got)
	}
	if got := ExtractGradePrice(doc, GradePSA10); got == nil || *got != 420.00 {
		t.Fatalf("psa10 = %v, want 420.00 from psa-adjacent span", got)
	}
}

func TestPriceSpanFallbackNoPSAContext(t *testing.T) {
	html := `<html><body>
		<div><span class="price">$146.64</span></div>
		<div><span class="price">$420.00</span></div>
	</body></html>`
	doc := mustDoc(t, html)

	if got := ExtractGradePrice(doc, GradePSA10); got != nil {
		t.Fatalf("psa10 = %v, want absent without psa context", *got)
	}
}

func TestExtractCard(t *testing.T) {
	html := `<html><head><title>Latias ex #239 Pokemon Surging Sparks</title></head><body>
		<h1>Latias ex #239 Pokemon Surging Sparks</h1>
		<table>
			<tr><th>Ungraded</th><th>Grade 7</th><th>Grade 8</th><th>Grade 9</th><th>Grade 9.5</th><th>PSA 10</th></tr>
			<tr><td>$146.64 +$0.64</td><td>-</td><td>$200.00</td><td>$250.00</td><td>$300.00</td><td>$420.00 -$3.00</td></tr>
		</table>
	</body></html>`

	record, err := ExtractCard(mustDoc(t, html))
	if err != nil {
		t.Fatalf("extract card: %v", err)
	}
	if record.CardName != "Latias ex #239" {
		t.Fatalf("name = %q, want %q", record.CardName, "Latias ex #239")
	}
	if record.UngradedPrice == nil || *record.UngradedPrice != 146.64 {
		t.Fatalf("ungraded = %v, want 146.64", record.UngradedPrice)
	}
	if record.PSA10Price == nil || *record.PSA10Price != 420.00 {
		t.Fatalf("psa10 = %v, want 420.00", record.PSA10Price)
	}
}

func TestExtractCardMissingPricesStillSucceeds(t *testing.T) {
	html := `<html><body><h1>Latias ex #239 Pokemon Surging Sparks</h1></body></html>`

	record, err := ExtractCard(mustDoc(t, html))
	if err != nil {
		t.Fatalf("extract card: %v", err)
	}
	if record.UngradedPrice != nil || record.PSA10Price != nil {
		t.Fatalf("prices should be absent, got %v / %v", record.UngradedPrice, record.PSA10Price)
	}
}

func TestExtractCardNoNameFails(t *testing.T) {
	html := `<html><body><table>
		<tr><th>Ungraded</th></tr><tr><td>$146.64</td></tr>
	</table></body></html>`

	if _, err := ExtractCard(mustDoc(t, html)); err != ErrNameNotFound {
		t.Fatalf("expected ErrNameNotFound, got %v", err)
	}
}
