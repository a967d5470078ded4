package models

// Factura 表示系統中唯一持久化的實體：一張發票
type Factura struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Titulo      string  `gorm:"type:varchar(255);not null" json:"titulo"`
	Descripcion *string `gorm:"type:text" json:"descripcion"`
	URL         *string `gorm:"column:url;type:varchar(500)" json:"url"`
}

// TableName 固定資料表名稱，與既有的 facturas 表相容
func (Factura) TableName() string {
	return "facturas"
}

// 欄位長度上限，與資料表定義一致
const (
	TituloMaxLen = 255
	URLMaxLen    = 500
)
