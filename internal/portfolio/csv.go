package portfolio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"cryptodash/internal/models"
)

var csvHeader = []string{"Symbol", "Amount"}

// RejectedRow describes an import line that could not be used.
type RejectedRow struct {
	Line   int    `json:"line"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// WriteCSV writes holdings as "Symbol,Amount" with a header row.
func WriteCSV(w io.Writer, holdings []models.Holding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, h := range holdings {
		if err := cw.Write([]string{h.Symbol, h.Amount.String()}); err != nil {
			return fmt.Errorf("write csv row %s: %w", h.Symbol, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MaxLineBytes caps a single import line. Longer lines are rejected
// without being buffered whole.
const MaxLineBytes = 4096

// ReadCSV parses the export format. A "Symbol,..." header as the first
// non-empty line is skipped. Each line is parsed on its own so a malformed or
// oversized line is reported in rejected and never aborts the import.
// Repeated symbols keep the last amount. The error is only set when r itself
// fails.
func ReadCSV(r io.Reader) ([]models.Holding, []RejectedRow, error) {
	var (
		holdings []models.Holding
		rejected []RejectedRow
	)
	br := bufio.NewReaderSize(r, MaxLineBytes)
	line := 0
	seenRecord := false
	for {
		text, tooLong, err := readLine(br)
		if err == io.EOF && text == "" && !tooLong {
			break
		}
		if err != nil && err != io.EOF {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		line++
		if tooLong {
			seenRecord = true
			rejected = append(rejected, RejectedRow{Line: line, Raw: preview(text), Reason: "line too long"})
		} else if row := processLine(text, line, !seenRecord, &holdings); row != nil {
			rejected = append(rejected, *row)
			seenRecord = true
		} else if strings.TrimSpace(text) != "" {
			seenRecord = true
		}
		if err == io.EOF {
			break
		}
	}
	return holdings, rejected, nil
}

// readLine returns the next line without its terminator. When the line
// exceeds MaxLineBytes the remainder is discarded and tooLong is set.
func readLine(br *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > MaxLineBytes {
				tooLong = true
				buf = buf[:MaxLineBytes]
			}
		}
		if err != nil {
			return string(buf), tooLong, err
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

func processLine(text string, line int, first bool, holdings *[]models.Holding) *RejectedRow {
	raw := strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	if raw == "" {
		return nil
	}
	fields, err := csv.NewReader(strings.NewReader(raw)).Read()
	if err != nil {
		return &RejectedRow{Line: line, Raw: raw, Reason: "malformed csv"}
	}
	if first && strings.EqualFold(strings.TrimSpace(fields[0]), csvHeader[0]) {
		return nil
	}
	h, reason := parseRow(fields)
	if reason != "" {
		return &RejectedRow{Line: line, Raw: raw, Reason: reason}
	}
	*holdings = upsert(*holdings, h)
	return nil
}

func preview(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}

func parseRow(fields []string) (models.Holding, string) {
	if len(fields) < 2 {
		return models.Holding{}, "expected symbol and amount"
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(fields[1]))
	if err != nil {
		return models.Holding{}, "amount is not a finite number"
	}
	h, err := NormalizeHolding(models.Holding{Symbol: fields[0], Amount: amount})
	if err != nil {
		return models.Holding{}, err.Error()
	}
	return h, ""
}
