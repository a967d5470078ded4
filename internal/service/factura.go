package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"facturas_api/internal/models"
	"facturas_api/internal/repository"
	"facturas_api/pkg/logger"
)

var (
	ErrTituloRequerido      = errors.New("El título es requerido")
	ErrTituloDemasiadoLargo = fmt.Errorf("El título no puede superar %d caracteres", models.TituloMaxLen)
	ErrURLDemasiadoLarga    = fmt.Errorf("La URL no puede superar %d caracteres", models.URLMaxLen)
	ErrFacturaNoEncontrada  = errors.New("Factura no encontrada")
)

// IsValidationError 判斷錯誤是否來自輸入驗證
func IsValidationError(err error) bool {
	return errors.Is(err, ErrTituloRequerido) ||
		errors.Is(err, ErrTituloDemasiadoLargo) ||
		errors.Is(err, ErrURLDemasiadoLarga)
}

// FacturaInput 是建立與更新發票時的輸入
// Descripcion 與 URL 為 nil 時，更新操作不會修改對應欄位，
// 除非對應的 Clear 旗標為 true，此時寫入 NULL
type FacturaInput struct {
	Titulo           string
	Descripcion      *string
	URL              *string
	ClearDescripcion bool
	ClearURL         bool
}

// EventPublisher 接收發票變更事件
type EventPublisher interface {
	Publish(event models.Event)
}

type FacturaService struct {
	facturaRepo repository.FacturaRepository
	events      EventPublisher
	lggr        logger.Logger
}

func NewFacturaService(facturaRepo repository.FacturaRepository, events EventPublisher, lggr logger.Logger) *FacturaService {
	return &FacturaService{
		facturaRepo: facturaRepo,
		events:      events,
		lggr:        lggr.Named("factura"),
	}
}

func (s *FacturaService) ListFacturas(ctx context.Context) ([]models.Factura, error) {
	return s.facturaRepo.FindAll(ctx)
}

func (s *FacturaService) GetFactura(ctx context.Context, id uint) (*models.Factura, error) {
	factura, err := s.facturaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return factura, nil
}

func (s *FacturaService) CreateFactura(ctx context.Context, input FacturaInput) (*models.Factura, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	factura := &models.Factura{
		Titulo:      input.Titulo,
		Descripcion: input.Descripcion,
		URL:         input.URL,
	}
	if err := s.facturaRepo.Create(ctx, factura); err != nil {
		return nil, err
	}

	s.lggr.Infow("factura created", "id", factura.ID)
	s.publish(models.NewEvent(models.EventFacturaCreada, factura.ID, factura))
	return factura, nil
}

func (s *FacturaService) UpdateFactura(ctx context.Context, id uint, input FacturaInput) (*models.Factura, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"titulo": input.Titulo}
	switch {
	case input.Descripcion != nil:
		fields["descripcion"] = *input.Descripcion
	case input.ClearDescripcion:
		fields["descripcion"] = nil
	}
	switch {
	case input.URL != nil:
		fields["url"] = *input.URL
	case input.ClearURL:
		fields["url"] = nil
	}

	if err := s.facturaRepo.Update(ctx, id, fields); err != nil {
		return nil, translate(err)
	}

	factura, err := s.facturaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}

	s.lggr.Infow("factura updated", "id", id)
	s.publish(models.NewEvent(models.EventFacturaActualizada, id, factura))
	return factura, nil
}

func (s *FacturaService) DeleteFactura(ctx context.Context, id uint) error {
	if err := s.facturaRepo.Delete(ctx, id); err != nil {
		return translate(err)
	}

	s.lggr.Infow("factura deleted", "id", id)
	s.publish(models.NewEvent(models.EventFacturaEliminada, id, nil))
	return nil
}

func (s *FacturaService) publish(event models.Event) {
	if s.events != nil {
		s.events.Publish(event)
	}
}

func validate(input FacturaInput) error {
	if strings.TrimSpace(input.Titulo) == "" {
		return ErrTituloRequerido
	}
	if utf8.RuneCountInString(input.Titulo) > models.TituloMaxLen {
		return ErrTituloDemasiadoLargo
	}
	if input.URL != nil && utf8.RuneCountInString(*input.URL) > models.URLMaxLen {
		return ErrURLDemasiadoLarga
	}
	return nil
}

// translate 把儲存層的「找不到」轉成服務層錯誤
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrFacturaNoEncontrada
	}
	return err
}
