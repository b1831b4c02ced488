// Package parser extracts card pricing information from PriceCharting
// pages. All functions are pure over an already parsed document.
package parser

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-cards/models"
)

// Grade names looked up in the pricing tables.
const (
	GradeUngraded = "Ungraded"
	GradePSA10    = "PSA 10"
)

// ErrNameNotFound is returned when a page has no usable card name. Name
// absence is the only hard extraction failure; missing prices are legal.
var ErrNameNotFound = errors.New("card name not found")

var (
	dollarAmount = regexp.MustCompile(`\$[\d,]+\.?\d*`)
	nonPriceChar = regexp.MustCompile(`[^\d.]`)
)

// ExtractCard pulls the card name and the Ungraded / PSA 10 prices out of
// doc. The caller fills in SourceURL.
func ExtractCard(doc *goquery.Document) (*models.CardRecord, error) {
	name, err := extractCardName(doc)
	if err != nil {
		return nil, err
	}

	return &models.CardRecord{
		CardName:      name,
		UngradedPrice: ExtractGradePrice(doc, GradeUngraded),
		PSA10Price:    ExtractGradePrice(doc, GradePSA10),
	}, nil
}

// extractCardName reads the first h1, falling back to the title element
// when the page has no h1 at all. Listing pages append "Pokemon <set>" to
// the card name, so everything from the literal "Pokemon" onward is cut.
func extractCardName(doc *goquery.Document) (string, error) {
	sel := doc.Find("h1").First()
	if sel.Length() == 0 {
		sel = doc.Find("title").First()
	}
	if sel.Length() == 0 {
		return "", ErrNameNotFound
	}

	name := strings.TrimSpace(sel.Text())
	if idx := strings.Index(name, "Pokemon"); idx >= 0 {
		name = strings.TrimSpace(name[:idx])
	}
	if name == "" {
		return "", ErrNameNotFound
	}
	return name, nil
}

// priceStrategy attempts to locate the price for a grade. A true match
// terminates the cascade even when the matched cell holds no price: a
// grade listed with a "-" is absent, not a reason to try the next
// strategy. Only an unmatched grade moves on.
type priceStrategy func(doc *goquery.Document, grade string) (price *float64, matched bool)

var priceStrategies = []priceStrategy{
	headerTablePrice,
	twoColumnPrice,
	priceSpanPrice,
}

// ExtractGradePrice runs the strategy cascade for one grade and returns
// the result of the first strategy that matches, or nil when every
// strategy comes up empty.
func ExtractGradePrice(doc *goquery.Document, grade string) *float64 {
	for _, strategy := range priceStrategies {
		if price, matched := strategy(doc, grade); matched {
			return price
		}
	}
	return nil
}

// headerTablePrice handles the main comparison table: row 0 holds grade
// headers, row 1 the prices. The cell under the matching header contains
// a dollar amount followed by a +/- delta which is ignored. A grade
// header without a dollar amount underneath does not count as a match.
func headerTablePrice(doc *goquery.Document, grade string) (*float64, bool) {
	var found *float64
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return true
		}

		headerCells := rows.Eq(0).Find("td, th")
		priceCells := rows.Eq(1).Find("td, th")

		matched := false
		headerCells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
			text := strings.TrimSpace(cell.Text())
			if !strings.Contains(strings.ToLower(text), strings.ToLower(grade)) {
				return true
			}
			if i >= priceCells.Length() {
				return true
			}
			amount := dollarAmount.FindString(strings.TrimSpace(priceCells.Eq(i).Text()))
			if amount == "" {
				return true
			}
			found = ParsePrice(amount)
			matched = found != nil
			return !matched
		})
		return !matched
	})
	return found, found != nil
}

// twoColumnPrice handles the full price guide table: grade label in the
// first cell, price in the second. The label must equal the grade exactly,
// substring matching is only valid for the header table. The first
// matching label wins whatever its cell parses to.
func twoColumnPrice(doc *goquery.Document, grade string) (*float64, bool) {
	var found *float64
	matched := false
	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return true
		}
		if !strings.EqualFold(strings.TrimSpace(cells.Eq(0).Text()), grade) {
			return true
		}
		found = ParsePrice(strings.TrimSpace(cells.Eq(1).Text()))
		matched = true
		return false
	})
	return found, matched
}

// priceSpanPrice is the positional fallback over span.price / span.js-price
// elements. The first span on the page is the ungraded price; for grades
// containing "10" the span whose parent text mentions both "psa" and "10"
// wins. This encodes the current page layout and is intentionally literal.
func priceSpanPrice(doc *goquery.Document, grade string) (*float64, bool) {
	spans := doc.Find("span.price, span.js-price")
	if spans.Length() == 0 {
		return nil, false
	}

	if strings.EqualFold(grade, GradeUngraded) {
		return ParsePrice(strings.TrimSpace(spans.First().Text())), true
	}

	if !strings.Contains(grade, "10") {
		return nil, false
	}

	var found *float64
	matched := false
	spans.EachWithBreak(func(_ int, span *goquery.Selection) bool {
		parentText := span.Parent().Text()
		if strings.Contains(strings.ToLower(parentText), "psa") && strings.Contains(parentText, "10") {
			found = ParsePrice(strings.TrimSpace(span.Text()))
			matched = true
			return false
		}
		return true
	})
	return found, matched
}

// ParsePrice converts price text like "$1,234.56" to a number. "-" marks
// an absent price on PriceCharting. Unparseable text is absent, not an
// error.
func ParsePrice(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return nil
	}

	clean := nonPriceChar.ReplaceAllString(text, "")
	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil
	}
	return &value
}

// FormatPrice renders a price for tabular output: plain decimal, no
// currency symbol, empty string when absent. The output reparses to the
// same value via ParsePrice.
func FormatPrice(price *float64) string {
	if price == nil {
		return ""
	}
	return strconv.FormatFloat(*price, 'f', -1, 64)
}
