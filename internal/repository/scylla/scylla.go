// Package scylla implémente les dépôts sur ScyllaDB (un keyspace par domaine).
package scylla

import (
	"errors"
	"fmt"

	"smartshop_back_end/internal/config"
	"smartshop_back_end/internal/database"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/repository"

	"github.com/gocql/gocql"
)

// New construit le Store à partir des sessions des trois keyspaces
func New(m *database.ScyllaManager, cfg config.ScyllaConfig) (*repository.Store, error) {
	products, err := m.GetSession(cfg.ProductsKeyspace)
	if err != nil {
		return nil, err
	}
	users, err := m.GetSession(cfg.UsersKeyspace)
	if err != nil {
		return nil, err
	}
	orders, err := m.GetSession(cfg.OrdersKeyspace)
	if err != nil {
		return nil, err
	}

	return &repository.Store{
		Users:      &UserRepository{session: users},
		Categories: &CategoryRepository{session: products},
		Brands:     &BrandRepository{session: products},
		Products:   &ProductRepository{session: products},
		Orders:     &OrderRepository{session: orders},
		Reviews:    &ReviewRepository{session: products},
	}, nil
}

// wrapNotFound convertit gocql.ErrNotFound en errs.ErrNotFound
func wrapNotFound(err error, kind string, key any) error {
	if errors.Is(err, gocql.ErrNotFound) {
		return fmt.Errorf("%w: %s %v", errs.ErrNotFound, kind, key)
	}
	return fmt.Errorf("lecture %s %v: %w", kind, key, err)
}
