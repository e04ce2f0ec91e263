package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/wyvernpos/pos-services/internal/saleslog"
)

// MethodStats accumulates one payment method's share of a report period.
type MethodStats struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Report aggregates the day logs of an inclusive date range.
type Report struct {
	StartDate      string                 `json:"start_date"`
	EndDate        string                 `json:"end_date"`
	Methods        map[string]MethodStats `json:"methods"`
	TotalSales     decimal.Decimal        `json:"total_sales"`
	TotalDiscounts decimal.Decimal        `json:"total_discounts"`
	NetSales       decimal.Decimal        `json:"net_sales"`
	ItemCounts     map[string]int         `json:"item_counts"`
	TotalItems     int                    `json:"total_items"`
}

// Aggregator is a read-only consumer of the day logs; it is safe to run
// while the terminal appends and the sync engine reads.
type Aggregator struct {
	dir string
}

func NewAggregator(dir string) *Aggregator {
	return &Aggregator{dir: dir}
}

// Generate walks each day of the inclusive range. Absent day files simply
// contribute nothing.
func (a *Aggregator) Generate(start, end time.Time) (Report, error) {
	if end.Before(start) {
		return Report{}, fmt.Errorf("end date %s before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	rep := Report{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		Methods: map[string]MethodStats{
			saleslog.MethodCash:   {Total: decimal.Zero},
			saleslog.MethodCard:   {Total: decimal.Zero},
			saleslog.MethodWyvern: {Total: decimal.Zero},
		},
		TotalSales:     decimal.Zero,
		TotalDiscounts: decimal.Zero,
		ItemCounts:     map[string]int{},
	}

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		path := filepath.Join(a.dir, fmt.Sprintf("transactions_%s.log", day.Format("2006-01-02")))
		content, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Report{}, fmt.Errorf("read day log %s: %w", path, err)
		}

		for _, rec := range saleslog.Parse(string(content)) {
			a.accumulate(&rep, rec)
		}
	}

	rep.NetSales = rep.TotalSales.Sub(rep.TotalDiscounts)
	return rep, nil
}

func (a *Aggregator) accumulate(rep *Report, rec saleslog.SaleRecord) {
	stats, ok := rep.Methods[rec.Method]
	if !ok {
		log.Warnf("report: unknown payment method %q ignored", rec.Method)
		return
	}
	stats.Count++
	stats.Total = stats.Total.Add(rec.TotalAmount)
	rep.Methods[rec.Method] = stats

	rep.TotalSales = rep.TotalSales.Add(rec.TotalAmount)
	rep.TotalDiscounts = rep.TotalDiscounts.Add(rec.DiscountAmount)

	for _, item := range rec.Items {
		key := fmt.Sprintf("%s (%s)", item.Name, rec.Method)
		rep.ItemCounts[key]++
		rep.TotalItems++
	}
}
