package scraper

import "github.com/shopspring/decimal"

// Party 是發票上的一方（開票方或客戶）
type Party struct {
	Nombre    string `json:"nombre"`
	NIF       string `json:"nif"`
	Direccion string `json:"direccion"`
	Email     string `json:"email"`
}

// LineItem 是發票明細中的一行
type LineItem struct {
	Descripcion    string           `json:"descripcion"`
	Cantidad       *decimal.Decimal `json:"cantidad"`
	PrecioUnitario *decimal.Decimal `json:"precio_unitario"`
	Importe        *decimal.Decimal `json:"importe"`
}

// Extraction 是從單一頁面擷取出的發票資料
type Extraction struct {
	URL       string           `json:"url"`
	Titulo    string           `json:"titulo"`
	Numero    string           `json:"numero"`
	Fecha     string           `json:"fecha"`
	Emisor    Party            `json:"emisor"`
	Cliente   Party            `json:"cliente"`
	Items     []LineItem       `json:"items"`
	Subtotal  *decimal.Decimal `json:"subtotal"`
	Impuestos *decimal.Decimal `json:"impuestos"`
	Total     *decimal.Decimal `json:"total"`
	Moneda    string           `json:"moneda"`
}
