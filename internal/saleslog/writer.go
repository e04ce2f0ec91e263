package saleslog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Writer appends sale blocks to the per-day log file of one terminal.
// Append is the only operation; historical blocks are never touched.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// FileName returns the day log file name for the record's calendar day.
func FileName(r SaleRecord) string {
	return fmt.Sprintf("transactions_%s.log", r.Timestamp.Format("2006-01-02"))
}

// Append writes one sale block, creating the day file if absent.
func (w *Writer) Append(r SaleRecord) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create transactions dir: %w", err)
	}

	path := filepath.Join(w.dir, FileName(r))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open day log %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatBlock(r)); err != nil {
		return fmt.Errorf("append sale block: %w", err)
	}

	log.Infof("sale appended to %s method=%s total=R%s",
		FileName(r), r.MethodKey(), r.TotalAmount.StringFixed(2))
	return nil
}

// formatBlock renders one sale block. Field order and spelling are fixed:
// the parser and the reporting screens read these bytes back.
func formatBlock(r SaleRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Timestamp: %s\n", r.Timestamp.Format(TimeLayout))
	fmt.Fprintf(&b, "Payment Method: %s\n", r.MethodKey())
	fmt.Fprintf(&b, "Total Amount: R%s\n", r.TotalAmount.StringFixed(2))
	if r.HasDiscount() {
		fmt.Fprintf(&b, "Discount Amount: R%s\n", r.DiscountAmount.StringFixed(2))
		fmt.Fprintf(&b, "Amount After Discount: R%s\n", r.AmountAfterDiscount().StringFixed(2))
	}
	b.WriteString("Items:\n")
	for _, item := range r.Items {
		fmt.Fprintf(&b, "- %s - R%s\n", item.Name, item.Price.StringFixed(2))
	}
	b.WriteString(Separator + "\n")

	return b.String()
}
