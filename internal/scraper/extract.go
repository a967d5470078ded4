package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

var (
	numberSelectors = []string{
		"[itemprop='confirmationNumber']",
		"[data-invoice-number]",
		".invoice-number",
		".numero-factura",
		".factura-numero",
		"#invoice-number",
		"#numero-factura",
	}
	dateSelectors = []string{
		".invoice-date",
		".fecha-factura",
		".fecha",
		"#invoice-date",
		"#fecha",
		"[itemprop='dateCreated']",
	}
	issuerSelectors = []string{
		"[itemprop='seller']",
		"[itemprop='provider']",
		".emisor",
		".issuer",
		".seller",
		".vendor",
		".from",
		"#emisor",
		"#issuer",
	}
	customerSelectors = []string{
		"[itemprop='customer']",
		".cliente",
		".customer",
		".bill-to",
		".billto",
		".receptor",
		".to",
		"#cliente",
		"#customer",
	}
	nameSelectors = []string{
		"[itemprop='name']",
		".name",
		".nombre",
		".razon-social",
		".company-name",
		"strong",
		"h2",
		"h3",
		"h4",
	}
	taxIDSelectors = []string{
		"[itemprop='taxID']",
		"[itemprop='vatID']",
		".nif",
		".cif",
		".tax-id",
	}
	addressSelectors = []string{
		"[itemprop='address']",
		"address",
		".address",
		".direccion",
	}
	itemTableSelectors = []string{
		"table.items",
		"table.line-items",
		"table.invoice-items",
		"table.conceptos",
		".line-items table",
		".items table",
		".conceptos table",
		"#items",
	}
	subtotalSelectors = []string{
		"[itemprop='subtotal']",
		".subtotal",
		".base-imponible",
		"#subtotal",
	}
	taxSelectors = []string{
		"[itemprop='totalTax']",
		".tax-total",
		".impuestos",
		".iva",
		".tax",
		"#tax",
	}
	totalSelectors = []string{
		"[itemprop='totalPaymentDue']",
		".grand-total",
		".invoice-total",
		".total-amount",
		"#total",
		".total",
	}
)

var (
	numberRe   = regexp.MustCompile(`(?i)(?:factura|invoice)\s*(?:n\.?\s*[º°o]\.?|n[úu]m(?:ero)?\.?|number|#)\s*:?\s*([A-Z0-9][A-Z0-9\-/.]*)`)
	dateRe     = regexp.MustCompile(`(?i)\d{4}-\d{2}-\d{2}|\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}|\d{1,2}\s+de\s+[a-záéíóú]+\s+de\s+\d{4}`)
	dateLineRe = regexp.MustCompile(`(?i)\b(fecha|date)\b`)
	taxIDRe    = regexp.MustCompile(`(?i)\b(?:NIF|CIF|NIE|RFC|CUIT|RUT|VAT(?:\s*(?:ID|No\.?))?|Tax\s*ID)\s*[:.]?\s*([A-Z0-9][A-Z0-9.\-]{4,})`)
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	partyLabel = regexp.MustCompile(`(?i)^(emisor|issuer|from|de|seller|vendedor|proveedor|cliente|customer|bill\s*to|facturar\s+a|para|to|receptor)\s*:?$`)

	headerDescRe   = regexp.MustCompile(`(?i)descripci|concepto|description|art[ií]culo|item|producto|servicio|detalle`)
	headerQtyRe    = regexp.MustCompile(`(?i)cant|qty|quantity|unidades|uds`)
	headerPriceRe  = regexp.MustCompile(`(?i)precio|price|unit|p\.\s*u|tarifa|rate`)
	headerAmountRe = regexp.MustCompile(`(?i)importe|amount|total|subtotal`)

	summaryRowRe  = regexp.MustCompile(`(?i)^(sub\s*-?total|total|base\s+imponible|iva|impuestos?|tax(es)?|vat|descuento|discount)\b`)
	subtotalLabel = regexp.MustCompile(`(?i)^\s*(sub\s*-?total|base\s+imponible|importe\s+neto|net\s+amount)`)
	taxLabel      = regexp.MustCompile(`(?i)^\s*(iva|i\.v\.a\.|impuestos?|taxes|tax|vat|igic)\b`)
	totalLabel    = regexp.MustCompile(`(?i)^\s*(total|importe\s+total|amount\s+due|grand\s+total)\b`)

	currencyCodeRe = regexp.MustCompile(`\b(EUR|USD|MXN|GBP|COP|ARS|CLP|PEN)\b`)
)

// 區塊元素之間插入換行，儲存格之間插入空白
var blockElements = map[string]bool{
	"address": true, "article": true, "br": true, "dd": true, "div": true, "dl": true,
	"dt": true, "footer": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "li": true, "main": true, "p": true,
	"section": true, "table": true, "tbody": true, "tfoot": true, "thead": true,
	"tr": true, "ul": true, "ol": true,
}

// ExtractHTML 依 Content-Type 的字元集解碼後解析 HTML 並擷取發票資料
func ExtractHTML(r io.Reader, contentType, pageURL string) (*Extraction, error) {
	utf8Reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("no se pudo decodificar la página: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("no se pudo analizar el HTML: %w", err)
	}

	return Extract(doc, pageURL), nil
}

// Extract 從已載入的文件讀取固定的欄位清單
func Extract(doc *goquery.Document, pageURL string) *Extraction {
	root := doc.Selection
	result := &Extraction{
		URL:   pageURL,
		Items: []LineItem{},
	}

	result.Titulo = cleanText(root.Find("title").First().Text())
	if result.Titulo == "" {
		result.Titulo = cleanText(root.Find("h1").First().Text())
	}

	result.Numero = extractNumber(root)
	result.Fecha = extractDate(root)
	result.Emisor = extractParty(root, issuerSelectors, "header")
	result.Cliente = extractParty(root, customerSelectors, "")

	itemRows := map[*html.Node]bool{}
	if table := findItemsTable(root); table != nil {
		result.Items = extractItems(table, itemRows)
	}

	result.Subtotal = extractAmount(root, subtotalSelectors, subtotalLabel, itemRows)
	result.Impuestos = extractAmount(root, taxSelectors, taxLabel, itemRows)
	result.Total = extractAmount(root, totalSelectors, totalLabel, itemRows)

	if result.Subtotal == nil {
		result.Subtotal = sumItems(result.Items)
	}
	if result.Total == nil && result.Subtotal != nil {
		total := *result.Subtotal
		if result.Impuestos != nil {
			total = total.Add(*result.Impuestos)
		}
		result.Total = &total
	}

	result.Moneda = extractCurrency(root)
	return result
}

func extractNumber(root *goquery.Selection) string {
	for _, selector := range numberSelectors {
		sel := root.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if v, ok := sel.Attr("data-invoice-number"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		text := cleanText(sel.Text())
		if text == "" {
			continue
		}
		if m := numberRe.FindStringSubmatch(text); m != nil {
			return trimNumber(m[1])
		}
		// 選擇器內容可能帶有「Nº:」之類的前綴
		if idx := strings.LastIndexAny(text, ":#º°"); idx >= 0 {
			_, size := utf8.DecodeRuneInString(text[idx:])
			if rest := strings.TrimSpace(text[idx+size:]); rest != "" {
				return trimNumber(rest)
			}
		}
		return trimNumber(text)
	}

	for _, line := range lines(root.Find("body")) {
		if m := numberRe.FindStringSubmatch(line); m != nil {
			return trimNumber(m[1])
		}
	}
	return ""
}

func trimNumber(s string) string {
	return strings.TrimRight(s, ".")
}

func extractDate(root *goquery.Selection) string {
	if v, ok := root.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}

	for _, selector := range dateSelectors {
		text := cleanText(root.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if m := dateRe.FindString(text); m != "" {
			return m
		}
		return text
	}

	for _, line := range lines(root.Find("body")) {
		if !dateLineRe.MatchString(line) {
			continue
		}
		if m := dateRe.FindString(line); m != "" {
			return m
		}
	}
	return ""
}

// extractParty 讀取開票方或客戶區塊；fallback 為找不到區塊時改用的元素（例如 header）
func extractParty(root *goquery.Selection, blockSelectors []string, fallback string) Party {
	block := firstMatch(root, blockSelectors)
	if block == nil && fallback != "" {
		if sel := root.Find(fallback).First(); sel.Length() > 0 {
			block = sel
		}
	}
	if block == nil {
		return Party{}
	}

	var party Party
	blockLines := lines(block)

	for _, selector := range nameSelectors {
		text := cleanText(block.Find(selector).First().Text())
		if text != "" && !partyLabel.MatchString(text) {
			party.Nombre = text
			break
		}
	}

	for _, selector := range taxIDSelectors {
		text := cleanText(block.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if m := taxIDRe.FindStringSubmatch(text); m != nil {
			party.NIF = m[1]
		} else {
			party.NIF = text
		}
		break
	}
	if party.NIF == "" {
		for _, line := range blockLines {
			if m := taxIDRe.FindStringSubmatch(line); m != nil {
				party.NIF = m[1]
				break
			}
		}
	}

	if href, ok := block.Find("a[href^='mailto:']").First().Attr("href"); ok {
		party.Email = strings.TrimPrefix(strings.SplitN(href, "?", 2)[0], "mailto:")
	}
	if party.Email == "" {
		party.Email = emailRe.FindString(strings.Join(blockLines, "\n"))
	}

	for _, selector := range addressSelectors {
		if text := joinLines(lines(block.Find(selector).First())); text != "" {
			party.Direccion = text
			break
		}
	}

	// 沒有標記的區塊：第一行是名稱，其餘非稅號、非郵件的行視為地址
	var rest []string
	for _, line := range blockLines {
		switch {
		case partyLabel.MatchString(line):
		case party.Nombre == "":
			party.Nombre = line
		case line == party.Nombre:
		case taxIDRe.MatchString(line), emailRe.MatchString(line):
		default:
			rest = append(rest, line)
		}
	}
	if party.Direccion == "" {
		party.Direccion = strings.Join(rest, ", ")
	}

	return party
}

func findItemsTable(root *goquery.Selection) *goquery.Selection {
	for _, selector := range itemTableSelectors {
		sel := root.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if goquery.NodeName(sel) != "table" {
			sel = sel.Find("table").First()
		}
		if sel.Length() > 0 {
			return sel
		}
	}

	tables := root.Find("table")
	var byHeader, byShape *goquery.Selection
	tables.EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headers := headerCells(table)
		for _, h := range headers {
			if headerDescRe.MatchString(h) {
				byHeader = table
				return false
			}
		}
		if byShape == nil && table.Find("tr").Length() >= 2 {
			byShape = table
		}
		return true
	})
	if byHeader != nil {
		return byHeader
	}
	return byShape
}

// headerCells 回傳表頭文字：優先 thead，其次只含 th 的第一列
func headerCells(table *goquery.Selection) []string {
	row := table.Find("thead tr").First()
	if row.Length() == 0 {
		first := table.Find("tr").First()
		if first.Find("th").Length() > 0 && first.Find("td").Length() == 0 {
			row = first
		}
	}
	if row.Length() == 0 {
		return nil
	}
	return row.Find("th, td").Map(func(_ int, cell *goquery.Selection) string {
		return cleanText(cell.Text())
	})
}

type columns struct {
	desc, qty, price, amount int
}

func mapColumns(headers []string, width int) columns {
	cols := columns{desc: -1, qty: -1, price: -1, amount: -1}
	for i, h := range headers {
		switch {
		case cols.qty < 0 && headerQtyRe.MatchString(h):
			cols.qty = i
		case cols.price < 0 && headerPriceRe.MatchString(h):
			cols.price = i
		case cols.amount < 0 && headerAmountRe.MatchString(h):
			cols.amount = i
		case cols.desc < 0 && headerDescRe.MatchString(h):
			cols.desc = i
		}
	}

	// 表頭無法辨識的欄位按位置補上：描述、金額（最後一欄）、數量、單價
	used := map[int]bool{}
	for _, idx := range []int{cols.desc, cols.qty, cols.price, cols.amount} {
		if idx >= 0 {
			used[idx] = true
		}
	}
	assign := func(field *int, idx int) {
		if *field < 0 && idx >= 0 && idx < width && !used[idx] {
			*field = idx
			used[idx] = true
		}
	}
	assign(&cols.desc, 0)
	assign(&cols.amount, width-1)
	assign(&cols.qty, 1)
	assign(&cols.price, 2)
	return cols
}

func extractItems(table *goquery.Selection, itemRows map[*html.Node]bool) []LineItem {
	headers := headerCells(table)

	var rows []*goquery.Selection
	width := len(headers)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Closest("thead, tfoot").Length() > 0 {
			return
		}
		if row.Find("td").Length() == 0 {
			return
		}
		rows = append(rows, row)
		if n := row.Find("td, th").Length(); width == 0 && n > width {
			width = n
		}
	})

	cols := mapColumns(headers, width)
	items := []LineItem{}
	for _, row := range rows {
		cells := row.Find("td, th").Map(func(_ int, cell *goquery.Selection) string {
			return cleanText(cell.Text())
		})
		if len(cells) < 2 || summaryRowRe.MatchString(cells[0]) {
			continue
		}

		item := LineItem{Descripcion: cell(cells, cols.desc)}
		if item.Descripcion == "" || summaryRowRe.MatchString(item.Descripcion) {
			continue
		}
		item.Cantidad = ParseAmount(cell(cells, cols.qty))
		item.PrecioUnitario = ParseAmount(cell(cells, cols.price))
		item.Importe = ParseAmount(cell(cells, cols.amount))
		if item.Importe == nil && item.Cantidad != nil && item.PrecioUnitario != nil {
			importe := item.Cantidad.Mul(*item.PrecioUnitario)
			item.Importe = &importe
		}

		itemRows[row.Get(0)] = true
		items = append(items, item)
	}
	return items
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// extractAmount 先用選擇器，再用標籤文字比對表格列、定義清單與一般元素
func extractAmount(root *goquery.Selection, selectors []string, label *regexp.Regexp, itemRows map[*html.Node]bool) *decimal.Decimal {
	for _, selector := range selectors {
		var found *decimal.Decimal
		root.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if inItemRow(sel, itemRows) || sel.Closest("thead").Length() > 0 {
				return true
			}
			if v, ok := sel.Attr("content"); ok {
				found = ParseAmount(v)
			}
			if found == nil {
				found = ParseAmount(stripLabel(cleanText(sel.Text()), label))
			}
			return found == nil
		})
		if found != nil {
			return found
		}
	}

	var found *decimal.Decimal
	root.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if itemRows[row.Get(0)] {
			return true
		}
		cells := row.Find("td, th").Map(func(_ int, c *goquery.Selection) string {
			return cleanText(c.Text())
		})
		for i, text := range cells {
			if !label.MatchString(text) || taxIDRe.MatchString(text) {
				continue
			}
			for j := len(cells) - 1; j > i; j-- {
				if found = ParseAmount(cells[j]); found != nil {
					return false
				}
			}
			found = ParseAmount(stripLabel(text, label))
			return found == nil
		}
		return true
	})
	if found != nil {
		return found
	}

	root.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !label.MatchString(cleanText(dt.Text())) {
			return true
		}
		found = ParseAmount(cleanText(dt.NextFiltered("dd").Text()))
		return found == nil
	})
	if found != nil {
		return found
	}

	root.Find("li, p, div, span, strong, b").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := cleanText(sel.Text())
		if text == "" || len(text) > 80 || !label.MatchString(text) || taxIDRe.MatchString(text) {
			return true
		}
		found = ParseAmount(stripLabel(text, label))
		if found == nil {
			found = ParseAmount(cleanText(sel.Next().Text()))
		}
		return found == nil
	})
	return found
}

// stripLabel 去掉開頭的標籤文字
func stripLabel(text string, label *regexp.Regexp) string {
	if loc := label.FindStringIndex(text); loc != nil && loc[0] == 0 {
		return text[loc[1]:]
	}
	return text
}

func inItemRow(sel *goquery.Selection, itemRows map[*html.Node]bool) bool {
	row := sel.Closest("tr")
	return row.Length() > 0 && itemRows[row.Get(0)]
}

func sumItems(items []LineItem) *decimal.Decimal {
	var sum decimal.Decimal
	n := 0
	for _, item := range items {
		if item.Importe != nil {
			sum = sum.Add(*item.Importe)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &sum
}

func extractCurrency(root *goquery.Selection) string {
	var sources []string
	for _, selector := range totalSelectors {
		if text := cleanText(root.Find(selector).First().Text()); text != "" {
			sources = append(sources, text)
		}
	}
	if v, ok := root.Find("[itemprop='priceCurrency']").First().Attr("content"); ok {
		sources = append([]string{v}, sources...)
	}
	sources = append(sources, strings.Join(lines(root.Find("body")), "\n"))

	for _, text := range sources {
		if m := currencyCodeRe.FindString(text); m != "" {
			return m
		}
		switch {
		case strings.Contains(text, "€"):
			return "EUR"
		case strings.Contains(text, "£"):
			return "GBP"
		case strings.Contains(text, "$"):
			return "USD"
		}
	}
	return ""
}

func firstMatch(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		sel := root.Find(selector).First()
		if sel.Length() > 0 && cleanText(sel.Text()) != "" {
			return sel
		}
	}
	return nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func joinLines(ls []string) string {
	return strings.Join(ls, ", ")
}

// lines 以區塊元素為界切出非空的文字行
func lines(sel *goquery.Selection) []string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head":
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		isCell := n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th")
		if block {
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteString("\n")
		} else if isCell {
			b.WriteString(" ")
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	var out []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = cleanText(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
