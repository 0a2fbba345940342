package db

import (
	"github.com/bookswapng/bookswap/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type BookRepository interface {
	CreateBook(book *models.Book) error
	GetBook(id uuid.UUID) (*models.Book, error)
	ListBooks() ([]models.Book, error)
	ListByOwner(ownerID string) ([]models.Book, error)
	UpdateBook(book *models.Book) error
}

type bookRepo struct {
	DB *gorm.DB
}

func NewBookRepo(db *GormDB) BookRepository {
	return &bookRepo{db.DB}
}

func (r *bookRepo) CreateBook(book *models.Book) error {
	if book == nil {
		return errors.New("book is nil")
	}
	return r.DB.Create(book).Error
}

func (r *bookRepo) GetBook(id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.DB.Where("id = ?", id).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepo) ListBooks() ([]models.Book, error) {
	var books []models.Book
	if err := r.DB.Where("available = ?", true).Order("created_at DESC").Find(&books).Error; err != nil {
		return nil, errors.Wrap(err, "book list failed")
	}
	return books, nil
}

func (r *bookRepo) ListByOwner(ownerID string) ([]models.Book, error) {
	var books []models.Book
	if err := r.DB.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&books).Error; err != nil {
		return nil, errors.Wrap(err, "book list failed")
	}
	return books, nil
}

func (r *bookRepo) UpdateBook(book *models.Book) error {
	return r.DB.Save(book).Error
}
