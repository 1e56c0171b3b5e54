package mockapi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bookadmin/internal/models"
)

type SeedUser struct {
	Username    string
	Password    string
	Role        models.Role
	IsSuperuser bool
	IsStaff     bool
	Permissions []string
}

// DefaultUsers are the accounts a fresh API knows
var DefaultUsers = []SeedUser{
	{Username: "admin", Password: "admin123", Role: models.RoleAdmin, IsSuperuser: true, IsStaff: true},
	{Username: "manager", Password: "manager123", Role: models.RoleManager, IsStaff: true, Permissions: []string{
		"view_book", "add_book", "change_book", "view_purchase", "add_purchase", "change_purchase", "view_sale", "add_sale", "view_financial",
	}},
	{Username: "staff", Password: "staff123", Role: models.RoleStaff, Permissions: []string{"view_book", "view_sale", "add_sale"}},
}

var defaultCategories = []models.Category{
	{Name: "Programming", Description: "Software development"},
	{Name: "Fiction"},
}

var defaultBooks = []models.Book{
	{ISBN: "9780134190440", Title: "The Go Programming Language", Author: "Alan Donovan", Publisher: "Addison-Wesley", Category: "Programming", Price: decimal.RequireFromString("39.99"), Stock: 10},
	{ISBN: "9781617294136", Title: "Concurrency in Go", Author: "Katherine Cox-Buday", Publisher: "O'Reilly", Category: "Programming", Price: decimal.RequireFromString("34.50"), Stock: 3},
	{ISBN: "9780441172719", Title: "Dune", Author: "Frank Herbert", Publisher: "Ace", Category: "Fiction", Price: decimal.RequireFromString("9.99"), Stock: 0},
}

func (s *Server) seed(users []SeedUser) error {
	for _, u := range users {
		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password of %s: %w", u.Username, err)
		}

		id := s.db.nextID()
		s.db.accounts[id] = &account{
			Profile: models.Profile{
				ID:          id,
				Username:    u.Username,
				Email:       u.Username + "@bookstore.local",
				Role:        u.Role,
				IsStaff:     u.IsStaff,
				IsSuperuser: u.IsSuperuser,
				IsActive:    true,
				Permissions: u.Permissions,
				CreatedAt:   s.db.now(),
			},
			passwordHash: hash,
		}
	}

	for _, c := range defaultCategories {
		c.ID = s.db.nextID()
		s.db.categories[c.ID] = &c
	}

	for _, b := range defaultBooks {
		b.ID = s.db.nextID()
		b.CreatedAt = s.db.now()
		b.UpdatedAt = b.CreatedAt
		setStock(&b, b.Stock)
		s.db.books[b.ID] = &b
	}

	return nil
}
