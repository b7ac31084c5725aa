package repository

import (
	"context"
	"fmt"

	"travel-backoffice/database"
	"travel-backoffice/models"
)

type exchangeRateRepo struct {
	client *database.Client
}

func NewExchangeRateRepository(client *database.Client) ExchangeRateRepository {
	return &exchangeRateRepo{client: client}
}

func (r *exchangeRateRepo) Latest(ctx context.Context, from, to string) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	err := r.client.Conn(ctx).
		Where("from_currency = ? AND to_currency = ?", from, to).
		Order("effective_at DESC").
		First(&rate).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load rate %s/%s: %w", from, to, err)
	}
	return &rate, nil
}
