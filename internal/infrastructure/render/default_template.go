package render

// defaultInvoiceTemplate is used when no template file is configured.
// Layout mirrors the production return-invoice document: header block,
// supplier block, line table, totals and the verification QR image.
const defaultInvoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { font-family: Arial, sans-serif; font-size: 12px; color: #222; }
  .header { display: flex; justify-content: space-between; margin-bottom: 16px; }
  .title { font-size: 18px; font-weight: bold; }
  table.items { width: 100%; border-collapse: collapse; margin-top: 12px; }
  table.items th, table.items td { border: 1px solid #999; padding: 4px 6px; }
  table.items th { background: #eee; text-align: left; }
  .num { text-align: right; }
  .totals { margin-top: 12px; width: 40%; margin-left: auto; }
  .totals td { padding: 3px 6px; }
  .qr { margin-top: 20px; }
  .remarks { margin-top: 14px; font-size: 11px; color: #444; }
</style>
</head>
<body>
  <div class="header">
    <div>
      <div class="title">Fatura e Kthimit {{.Snapshot.DocumentType}}/{{.Snapshot.InvoiceNumber}}/{{.Snapshot.UnitCode}}</div>
      <div>Data: {{date .Snapshot.IssueDate}}</div>
      <div>Njesia: {{.Snapshot.UnitCode}}</div>
      <div>Pranuesi: {{.Snapshot.Receiver}}</div>
    </div>
    <div>
      <div><strong>{{.Snapshot.Supplier.Name}}</strong> ({{.Snapshot.Supplier.ID}})</div>
      <div>{{.Snapshot.Supplier.Address}}</div>
      <div>{{.Snapshot.Supplier.ZipCode}} {{.Snapshot.Supplier.City}}, {{.Snapshot.Supplier.State}}</div>
      <div>NUI: {{.Snapshot.Supplier.TaxNumber}}</div>
      <div>{{.Snapshot.Supplier.ContactPerson}} {{.Snapshot.Supplier.Contact}}</div>
    </div>
  </div>

  <table class="items">
    <tr>
      <th>Emertimi</th><th>Njesia</th><th>Shifra</th>
      <th class="num">Sasia</th><th class="num">Cmimi</th>
      <th class="num">Zbritje %</th><th class="num">TVSH %</th>
      <th class="num">TVSH</th><th class="num">Totali</th>
    </tr>
    {{range .Snapshot.Items}}
    <tr>
      <td>{{.Description}}</td>
      <td>{{.UnitOfMeasure}}</td>
      <td>{{.ItemCode}}</td>
      <td class="num">{{q2 .Quantity}}</td>
      <td class="num">{{q4 .UnitPrice}}</td>
      <td class="num">{{q2 .DiscountPercent}}</td>
      <td class="num">{{q2 .TaxRatePercent}}</td>
      <td class="num">{{q4 .Amounts.TaxAmount}}</td>
      <td class="num">{{q4 .Amounts.LineGross}}</td>
    </tr>
    {{end}}
  </table>

  <table class="totals">
    <tr><td>Sasia totale:</td><td class="num">{{q2 .Snapshot.Totals.TotalQuantity}}</td></tr>
    <tr><td>Nentotali:</td><td class="num">{{q4 .Snapshot.Totals.Subtotal}} {{.Snapshot.Currency}}</td></tr>
    <tr><td>TVSH:</td><td class="num">{{q4 .Snapshot.Totals.TotalTax}} {{.Snapshot.Currency}}</td></tr>
    <tr><td><strong>Totali:</strong></td><td class="num"><strong>{{q4 .Snapshot.Totals.GrandTotal}} {{.Snapshot.Currency}}</strong></td></tr>
  </table>

  {{if or .Snapshot.RemarkA .Snapshot.RemarkB}}
  <div class="remarks">{{.Snapshot.RemarkA}} {{.Snapshot.RemarkB}}</div>
  {{end}}

  <div class="qr">
    <img src="{{.QRImageURI}}" width="140" height="140" alt="verifikimi">
  </div>
</body>
</html>`
