package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// ReadURLs loads the URL column from a CSV file with a header row. URLs
// that do not point at pricecharting.com are returned in skipped and take
// no part in processing. A missing column is a fatal configuration error
// whose message lists the columns that do exist.
func ReadURLs(path, column string) (urls []string, skipped []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, fmt.Errorf("column %q not found; available columns: %s",
			column, strings.Join(header, ", "))
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv rows: %w", err)
	}

	for _, record := range records {
		if idx >= len(record) {
			continue
		}
		url := strings.TrimSpace(record[idx])
		if url == "" {
			continue
		}
		if IsPriceChartingURL(url) {
			urls = append(urls, url)
		} else {
			skipped = append(skipped, url)
		}
	}
	return urls, skipped, nil
}

// IsPriceChartingURL reports whether url points at the supported site.
func IsPriceChartingURL(url string) bool {
	return strings.Contains(strings.ToLower(url), "pricecharting.com")
}
