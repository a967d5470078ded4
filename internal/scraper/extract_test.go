package scraper

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractString(t *testing.T, page string) *Extraction {
	t.Helper()
	extraction, err := ExtractHTML(strings.NewReader(page), "text/html; charset=utf-8", "https://example.com/factura")
	require.NoError(t, err)
	return extraction
}

func assertAmount(t *testing.T, want string, got *decimal.Decimal) {
	t.Helper()
	require.NotNil(t, got, "expected %s", want)
	assert.True(t, decimal.RequireFromString(want).Equal(*got), "expected %s, got %s", want, got)
}

func TestExtractHTML_Golden(t *testing.T) {
	f, err := os.Open("testdata/factura_completa.html")
	require.NoError(t, err)
	defer f.Close()

	extraction, err := ExtractHTML(f, "text/html; charset=utf-8", "https://proveedor.example/facturas/F-2024-001")
	require.NoError(t, err)

	data, err := json.MarshalIndent(extraction, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "factura_completa", data)
}

func TestExtract_UnlabelledEnglishInvoice(t *testing.T) {
	page := `<html><head><title>Invoice</title></head>
<body>
<header><h2>Initech LLC</h2><p>VAT ID: US-99887766</p><p>500 Main Street, Austin TX</p><p>billing@initech.example</p></header>
<p>Invoice #INV-7781</p>
<p>Date: 03/02/2024</p>
<table>
<tr><th>Item</th><th>Qty</th><th>Rate</th><th>Amount</th></tr>
<tr><td>Widget</td><td>3</td><td>$1,250.00</td><td>$3,750.00</td></tr>
<tr><td>Support plan</td><td>1</td><td>$249.99</td><td>$249.99</td></tr>
<tr><td colspan="3">Subtotal</td><td>$3,999.99</td></tr>
<tr><td colspan="3">Tax</td><td>$320.00</td></tr>
<tr><td colspan="3">Total</td><td>$4,319.99</td></tr>
</table>
</body></html>`

	e := extractString(t, page)

	assert.Equal(t, "Invoice", e.Titulo)
	assert.Equal(t, "INV-7781", e.Numero)
	assert.Equal(t, "03/02/2024", e.Fecha)

	assert.Equal(t, "Initech LLC", e.Emisor.Nombre)
	assert.Equal(t, "US-99887766", e.Emisor.NIF)
	assert.Equal(t, "billing@initech.example", e.Emisor.Email)
	assert.Equal(t, "500 Main Street, Austin TX", e.Emisor.Direccion)
	assert.Equal(t, Party{}, e.Cliente)

	require.Len(t, e.Items, 2)
	assert.Equal(t, "Widget", e.Items[0].Descripcion)
	assertAmount(t, "3", e.Items[0].Cantidad)
	assertAmount(t, "1250", e.Items[0].PrecioUnitario)
	assertAmount(t, "3750", e.Items[0].Importe)
	assert.Equal(t, "Support plan", e.Items[1].Descripcion)
	assertAmount(t, "249.99", e.Items[1].Importe)

	assertAmount(t, "3999.99", e.Subtotal)
	assertAmount(t, "320", e.Impuestos)
	assertAmount(t, "4319.99", e.Total)
	assert.Equal(t, "USD", e.Moneda)
}

func TestExtract_PositionalColumnsAndDefinitionList(t *testing.T) {
	page := `<html><body>
<h1>Factura nº 2024/117</h1>
<div class="issuer">Talleres Pérez<br>NIF: 12345678Z<br>Polígono Sur 4, Sevilla</div>
<table>
<tr><td>Revisión general</td><td>1</td><td>80,00</td><td>80,00</td></tr>
<tr><td>Cambio de aceite</td><td>2</td><td>35,50</td><td>71,00</td></tr>
</table>
<dl><dt>Base imponible</dt><dd>151,00 €</dd><dt>IVA 21%</dt><dd>31,71 €</dd><dt>Total a pagar</dt><dd>182,71 €</dd></dl>
</body></html>`

	e := extractString(t, page)

	assert.Equal(t, "Factura nº 2024/117", e.Titulo)
	assert.Equal(t, "2024/117", e.Numero)
	assert.Empty(t, e.Fecha)

	assert.Equal(t, "Talleres Pérez", e.Emisor.Nombre)
	assert.Equal(t, "12345678Z", e.Emisor.NIF)
	assert.Equal(t, "Polígono Sur 4, Sevilla", e.Emisor.Direccion)

	require.Len(t, e.Items, 2)
	assert.Equal(t, "Revisión general", e.Items[0].Descripcion)
	assertAmount(t, "1", e.Items[0].Cantidad)
	assertAmount(t, "80", e.Items[0].PrecioUnitario)
	assertAmount(t, "80", e.Items[0].Importe)
	assert.Equal(t, "Cambio de aceite", e.Items[1].Descripcion)
	assertAmount(t, "2", e.Items[1].Cantidad)
	assertAmount(t, "35.5", e.Items[1].PrecioUnitario)
	assertAmount(t, "71", e.Items[1].Importe)

	assertAmount(t, "151", e.Subtotal)
	assertAmount(t, "31.71", e.Impuestos)
	assertAmount(t, "182.71", e.Total)
	assert.Equal(t, "EUR", e.Moneda)
}

func TestExtract_TotalIgnoresPercentagesAndDates(t *testing.T) {
	page := `<html><body>
<p class="fecha">Fecha: 2024-03-15</p>
<p class="total">Total: 1.210,00 € (IVA 21% incluido)</p>
<p>Base imponible: 1.000,00 € hasta 2024-04-15</p>
</body></html>`

	e := extractString(t, page)

	assert.Equal(t, "2024-03-15", e.Fecha)
	assertAmount(t, "1210", e.Total)
	assertAmount(t, "1000", e.Subtotal)
	assert.Nil(t, e.Impuestos)
	assert.Equal(t, "EUR", e.Moneda)
}

func TestExtract_TotalsFallBackToItems(t *testing.T) {
	page := `<html><body>
<table class="items">
<thead><tr><th>Concepto</th><th>Importe</th></tr></thead>
<tbody>
<tr><td>Diseño de logotipo</td><td>10,00</td></tr>
<tr><td>Tarjetas de visita</td><td>5,50</td></tr>
</tbody>
</table>
</body></html>`

	e := extractString(t, page)

	require.Len(t, e.Items, 2)
	assert.Nil(t, e.Items[0].Cantidad)
	assertAmount(t, "15.5", e.Subtotal)
	assert.Nil(t, e.Impuestos)
	assertAmount(t, "15.5", e.Total)
}

func TestExtract_EmptyPage(t *testing.T) {
	e := extractString(t, `<html><body><p>Nada por aquí</p></body></html>`)

	assert.Equal(t, "https://example.com/factura", e.URL)
	assert.Empty(t, e.Titulo)
	assert.Empty(t, e.Numero)
	assert.Equal(t, Party{}, e.Emisor)
	assert.NotNil(t, e.Items)
	assert.Empty(t, e.Items)
	assert.Nil(t, e.Subtotal)
	assert.Nil(t, e.Total)
	assert.Empty(t, e.Moneda)

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items":[]`)
	assert.Contains(t, string(data), `"total":null`)
}

func TestExtractHTML_DecodesDeclaredCharset(t *testing.T) {
	page := "<html><head><title>Facturaci\xf3n</title></head><body></body></html>"

	e, err := ExtractHTML(strings.NewReader(page), "text/html; charset=iso-8859-1", "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "Facturación", e.Titulo)
}
