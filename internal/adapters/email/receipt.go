package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(`<p>Thanks for upgrading to {{.Product}}.</p>
<p>Amount paid: <strong>{{.Amount}}</strong></p>
<p>Your Pro lessons are unlocked now. Open <a href="{{.DashboardURL}}">{{.DashboardURL}}</a> to start.</p>
<p>Reference: {{.SessionID}}</p>`))

// Receipt describes a completed Pro purchase.
type Receipt struct {
	To          string
	Product     string
	AmountMinor int64
	Currency    string
	SessionID   string
	BaseURL     string
}

// ReceiptRequest renders the purchase receipt message.
func ReceiptRequest(r Receipt) (SendRequest, error) {
	var buf bytes.Buffer
	err := receiptTmpl.Execute(&buf, map[string]string{
		"Product":      r.Product,
		"Amount":       FormatAmount(r.AmountMinor, r.Currency),
		"DashboardURL": strings.TrimRight(r.BaseURL, "/") + "/pro",
		"SessionID":    r.SessionID,
	})
	if err != nil {
		return SendRequest{}, err
	}
	return SendRequest{
		To:      []string{r.To},
		Subject: "Your " + r.Product + " receipt",
		HTML:    buf.String(),
	}, nil
}

// FormatAmount renders minor units with a currency symbol, e.g. 999 gbp -> £9.99.
func FormatAmount(minor int64, currency string) string {
	symbols := map[string]string{"gbp": "£", "usd": "$", "eur": "€"}
	cur := strings.ToLower(currency)
	s := fmt.Sprintf("%d.%02d", minor/100, minor%100)
	if sym, ok := symbols[cur]; ok {
		return sym + s
	}
	return s + " " + strings.ToUpper(cur)
}
