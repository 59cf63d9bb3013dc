package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/primefit/storefront/internal/cart"
	"github.com/shopspring/decimal"
)

const (
	emptyCartMessage = "Olá! Gostaria de fazer um pedido."
	messageHeader    = "Olá! Gostaria de finalizar um pedido:\n\n"
	whatsAppBaseURL  = "https://wa.me/"
)

// FormatBRL renders an amount the way the storefront shows prices: "R$ 1234,50".
func FormatBRL(amount decimal.Decimal) string {
	return "R$ " + strings.Replace(amount.StringFixed(2), ".", ",", 1)
}

// ComposeMessage builds the order summary sent over WhatsApp.
func ComposeMessage(snap cart.Snapshot) string {
	if len(snap.Items) == 0 {
		return emptyCartMessage
	}

	lines := make([]string, 0, len(snap.Items))
	for _, item := range snap.Items {
		variant := ""
		if item.Variant != "" {
			variant = fmt.Sprintf(" (%s)", item.Variant)
		}
		lines = append(lines, fmt.Sprintf("%dx %s%s - %s", item.Quantity, item.Name, variant, FormatBRL(item.Subtotal())))
	}

	var b strings.Builder
	b.WriteString(messageHeader)
	b.WriteString(strings.Join(lines, "\n"))
	fmt.Fprintf(&b, "\n\nTotal: %s\nItens: %d", FormatBRL(snap.TotalValue), snap.TotalCount)
	return b.String()
}

// WhatsAppURL builds a wa.me deep link carrying message as prefilled text.
func WhatsAppURL(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return whatsAppBaseURL + digits + "?text=" + encodeURIComponent(message)
}

var uriComponentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent matches the browser function so links built here and in
// the storefront are byte-identical.
func encodeURIComponent(s string) string {
	return uriComponentUnescapes.Replace(url.QueryEscape(s))
}
