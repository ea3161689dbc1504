package printer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cafe-pos-api/config"
)

// ESC/POS command bytes.
const (
	esc = 0x1b
	gs  = 0x1d
)

var (
	cmdInit        = []byte{esc, '@'}
	cmdAlignLeft   = []byte{esc, 'a', 0}
	cmdAlignCenter = []byte{esc, 'a', 1}
	cmdBoldOn      = []byte{esc, 'E', 1}
	cmdBoldOff     = []byte{esc, 'E', 0}
	cmdDoubleOn    = []byte{gs, '!', 0x11}
	cmdDoubleOff   = []byte{gs, '!', 0}
	cmdCut         = []byte{gs, 'V', 'A', 3}
	cmdDrawerKick  = []byte{esc, 'p', 0, 25, 250}
)

type Line struct {
	Name      string
	Size      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	Notes     string
}

// Receipt is everything printed for one sale.
type Receipt struct {
	OrderNumber   string
	CreatedAt     time.Time
	Cashier       string
	CustomerName  string
	Lines         []Line
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	CashReceived  decimal.NullDecimal
	Change        decimal.NullDecimal
}

// Render lays the receipt out for a printer width columns wide.
func Render(r Receipt, biz config.Business, width int, reprint bool) []byte {
	if width <= 0 {
		width = 32
	}
	var b bytes.Buffer
	b.Write(cmdInit)

	b.Write(cmdAlignCenter)
	b.Write(cmdDoubleOn)
	b.WriteString(clip(biz.Name, width/2) + "\n")
	b.Write(cmdDoubleOff)
	for _, s := range []string{biz.Address, biz.Phone} {
		if s != "" {
			b.WriteString(clip(s, width) + "\n")
		}
	}
	if reprint {
		b.Write(cmdBoldOn)
		b.WriteString("*** REPRINT ***\n")
		b.Write(cmdBoldOff)
	}
	b.WriteString(rule(width))

	b.Write(cmdAlignLeft)
	b.WriteString(pair("Order:", r.OrderNumber, width))
	b.WriteString(pair("Date:", r.CreatedAt.Format("2006-01-02 15:04"), width))
	if r.Cashier != "" {
		b.WriteString(pair("Cashier:", r.Cashier, width))
	}
	if r.CustomerName != "" {
		b.WriteString(pair("Customer:", r.CustomerName, width))
	}
	b.WriteString(rule(width))

	for _, l := range r.Lines {
		name := l.Name
		if l.Size != "" {
			name += " (" + l.Size + ")"
		}
		b.WriteString(clip(name, width) + "\n")
		b.WriteString(pair(fmt.Sprintf("  %d x %s", l.Quantity, l.UnitPrice.StringFixed(2)), l.LineTotal.StringFixed(2), width))
		if l.Notes != "" {
			b.WriteString(clip("  * "+l.Notes, width) + "\n")
		}
	}
	b.WriteString(rule(width))

	b.WriteString(pair("Subtotal:", r.Subtotal.StringFixed(2), width))
	if r.Discount.IsPositive() {
		b.WriteString(pair("Discount:", "-"+r.Discount.StringFixed(2), width))
	}
	b.WriteString(pair("Tax:", r.Tax.StringFixed(2), width))
	b.Write(cmdBoldOn)
	b.WriteString(pair("TOTAL:", r.Total.StringFixed(2), width))
	b.Write(cmdBoldOff)
	b.WriteString(rule(width))

	b.WriteString(pair("Payment:", strings.ToUpper(r.PaymentMethod), width))
	cash := r.PaymentMethod == "cash"
	if cash && r.CashReceived.Valid {
		b.WriteString(pair("Cash received:", r.CashReceived.Decimal.StringFixed(2), width))
		if r.Change.Valid {
			b.WriteString(pair("Change:", r.Change.Decimal.StringFixed(2), width))
		}
	}

	b.Write(cmdAlignCenter)
	b.WriteString("\nThank you for your visit!\n\n\n")
	b.Write(cmdCut)
	if cash && !reprint {
		b.Write(cmdDrawerKick)
	}
	return b.Bytes()
}

// TestPage is printed by the printer test endpoint.
func TestPage(biz config.Business, width int, now time.Time) []byte {
	var b bytes.Buffer
	b.Write(cmdInit)
	b.Write(cmdAlignCenter)
	b.WriteString(clip(biz.Name, width) + "\n")
	b.WriteString("PRINTER TEST\n")
	b.WriteString(now.Format("2006-01-02 15:04:05") + "\n")
	b.WriteString(rule(width))
	b.WriteString("\n\n\n")
	b.Write(cmdCut)
	return b.Bytes()
}

func rule(width int) string {
	return strings.Repeat("-", width) + "\n"
}

// pair left-aligns l and right-aligns r on one line.
func pair(l, r string, width int) string {
	gap := width - len(l) - len(r)
	if gap < 1 {
		l = clip(l, max(width-len(r)-1, 0))
		gap = max(width-len(l)-len(r), 1)
	}
	return l + strings.Repeat(" ", gap) + r + "\n"
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
