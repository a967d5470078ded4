package repository

import "facturas_api/internal/storage"

type Repositories struct {
	Factura FacturaRepository
}

func NewRepositories(db *storage.Database) *Repositories {
	return &Repositories{
		Factura: NewFacturaRepository(db),
	}
}
