package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/kthimi/invoicer/internal/domain/invoice"
)

const emailBodyTemplate = `<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <p>Përshëndetje,</p>
  <p>Në vijim gjeni faturën e kthimit të bashkangjitur.</p>
  <table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse; border-color: #ccc;">
    <tr><td><b>Fatura</b></td><td>{{.Snapshot.DocumentType}} {{.Snapshot.InvoiceNumberString}} / {{.Snapshot.UnitCode}}</td></tr>
    <tr><td><b>Data</b></td><td>{{date .Snapshot.IssueDate}}</td></tr>
    <tr><td><b>Furnitori</b></td><td>{{.Snapshot.Supplier.Name}}</td></tr>
    <tr><td><b>Marrësi</b></td><td>{{.Snapshot.Receiver}}</td></tr>
    <tr><td><b>Nëntotali</b></td><td>{{q4 .Snapshot.Totals.Subtotal}} {{.Snapshot.Currency}}</td></tr>
    <tr><td><b>TVSH</b></td><td>{{q4 .Snapshot.Totals.TotalTax}} {{.Snapshot.Currency}}</td></tr>
    <tr><td><b>Totali</b></td><td>{{q4 .Snapshot.Totals.GrandTotal}} {{.Snapshot.Currency}}</td></tr>
{{- if .Snapshot.RemarkA}}
    <tr><td><b>Vërejtje</b></td><td>{{.Snapshot.RemarkA}}</td></tr>
{{- end}}
{{- if .Snapshot.RemarkB}}
    <tr><td><b>Shënim</b></td><td>{{.Snapshot.RemarkB}}</td></tr>
{{- end}}
  </table>
  <p>Ky është një njoftim automatik, ju lutemi mos iu përgjigjni këtij emaili.</p>
</body>
</html>
`

var emailTmpl = template.Must(template.New("email").Funcs(funcMap).Parse(emailBodyTemplate))

// EmailSubject builds the notification subject line for an invoice.
func EmailSubject(snap *invoice.Snapshot) string {
	return fmt.Sprintf("Kthimi - Fatura #%s", snap.InvoiceNumberString())
}

// EmailBody renders the HTML notification body for an invoice.
func EmailBody(snap *invoice.Snapshot) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Snapshot *invoice.Snapshot
	}{Snapshot: snap}
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}
	return buf.String(), nil
}
