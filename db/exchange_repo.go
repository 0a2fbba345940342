package db

import (
	"github.com/bookswapng/bookswap/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ExchangeRepository interface {
	CreateExchange(exchange *models.ExchangeRequest) error
	GetExchange(id uuid.UUID) (*models.ExchangeRequest, error)
	ListByOwner(ownerID string) ([]models.ExchangeRequest, error)
	ListByRequester(requesterID string) ([]models.ExchangeRequest, error)
	// UpdateStatusIf applies updates only while the stored status is one of
	// from. A false return means the conditional write lost: the record
	// moved underneath the caller, who must re-read before deciding anything.
	UpdateStatusIf(id uuid.UUID, from []models.ExchangeStatus, updates map[string]interface{}) (bool, error)
}

type exchangeRepo struct {
	DB *gorm.DB
}

func NewExchangeRepo(db *GormDB) ExchangeRepository {
	return &exchangeRepo{db.DB}
}

func (r *exchangeRepo) CreateExchange(exchange *models.ExchangeRequest) error {
	if exchange == nil {
		return errors.New("exchange is nil")
	}
	if err := r.DB.Create(exchange).Error; err != nil {
		return errors.Wrap(err, "exchange create failed")
	}
	return nil
}

func (r *exchangeRepo) GetExchange(id uuid.UUID) (*models.ExchangeRequest, error) {
	var exchange models.ExchangeRequest
	if err := r.DB.Where("id = ?", id).First(&exchange).Error; err != nil {
		return nil, err
	}
	return &exchange, nil
}

func (r *exchangeRepo) ListByOwner(ownerID string) ([]models.ExchangeRequest, error) {
	var exchanges []models.ExchangeRequest
	err := r.DB.Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&exchanges).Error
	if err != nil {
		return nil, errors.Wrap(err, "exchange list failed")
	}
	return exchanges, nil
}

func (r *exchangeRepo) ListByRequester(requesterID string) ([]models.ExchangeRequest, error) {
	var exchanges []models.ExchangeRequest
	err := r.DB.Where("requester_id = ?", requesterID).
		Order("updated_at DESC").
		Find(&exchanges).Error
	if err != nil {
		return nil, errors.Wrap(err, "exchange list failed")
	}
	return exchanges, nil
}

func (r *exchangeRepo) UpdateStatusIf(id uuid.UUID, from []models.ExchangeStatus, updates map[string]interface{}) (bool, error) {
	tx := r.DB.Model(&models.ExchangeRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if tx.Error != nil {
		return false, errors.Wrap(tx.Error, "exchange status update failed")
	}
	return tx.RowsAffected > 0, nil
}
