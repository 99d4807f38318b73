package users

import (
	"context"

	"github.com/dmitrijs2005/faceguard/internal/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	SetPINHash(ctx context.Context, username string, hash string) error
	Delete(ctx context.Context, username string) error
}
