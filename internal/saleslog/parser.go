package saleslog

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// fieldHandlers dispatches block lines by prefix. A handler failure poisons
// only its own block.
var fieldHandlers = []struct {
	prefix string
	apply  func(r *SaleRecord, value string) error
}{
	{"Timestamp:", func(r *SaleRecord, v string) error {
		ts, err := time.Parse(TimeLayout, v)
		if err != nil {
			return fmt.Errorf("bad timestamp %q: %w", v, err)
		}
		r.Timestamp = ts
		return nil
	}},
	{"Payment Method:", func(r *SaleRecord, v string) error {
		r.Method, r.CardID = normalizeMethod(v)
		return nil
	}},
	{"Total Amount:", func(r *SaleRecord, v string) error {
		amount, err := parseAmount(v)
		if err != nil {
			return err
		}
		r.TotalAmount = amount
		return nil
	}},
	{"Discount Amount:", func(r *SaleRecord, v string) error {
		amount, err := parseAmount(v)
		if err != nil {
			return err
		}
		r.DiscountAmount = amount
		return nil
	}},
}

// Parse extracts all well-formed sale blocks from one day log file's
// contents. A malformed block is skipped with a logged warning and never
// aborts the remaining blocks.
func Parse(content string) []SaleRecord {
	var records []SaleRecord

	for _, block := range strings.Split(content, Separator) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		rec, err := parseBlock(block)
		if err != nil {
			log.Warnf("skipping malformed sale block: %v", err)
			continue
		}
		records = append(records, rec)
	}

	return records
}

func parseBlock(block string) (SaleRecord, error) {
	var r SaleRecord

	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "- ") {
			item, err := parseItemLine(line[2:])
			if err != nil {
				return SaleRecord{}, err
			}
			r.Items = append(r.Items, item)
			continue
		}

		for _, h := range fieldHandlers {
			if !strings.HasPrefix(line, h.prefix) {
				continue
			}
			value := strings.TrimSpace(line[len(h.prefix):])
			if err := h.apply(&r, value); err != nil {
				return SaleRecord{}, err
			}
			break
		}
		// "Items:", "Amount After Discount:" and unknown lines carry no
		// independent information and are ignored
	}

	if r.Timestamp.IsZero() {
		return SaleRecord{}, fmt.Errorf("block missing Timestamp")
	}
	if r.Method == "" {
		return SaleRecord{}, fmt.Errorf("block missing Payment Method")
	}
	if r.TotalAmount.IsZero() {
		return SaleRecord{}, fmt.Errorf("block missing Total Amount")
	}

	return r, nil
}

// parseItemLine splits "<fullPath> - R<price>". Item paths may themselves
// contain " - ", so the split happens at the last price marker.
func parseItemLine(line string) (Item, error) {
	idx := strings.LastIndex(line, " - R")
	if idx < 0 {
		return Item{}, fmt.Errorf("bad item line %q", line)
	}
	price, err := parseAmount(line[idx+len(" - "):])
	if err != nil {
		return Item{}, err
	}
	return Item{Name: strings.TrimSpace(line[:idx]), Price: price}, nil
}

func parseAmount(v string) (decimal.Decimal, error) {
	v = strings.TrimSpace(strings.TrimPrefix(v, "R"))
	amount, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format %q: %w", v, err)
	}
	return amount, nil
}
