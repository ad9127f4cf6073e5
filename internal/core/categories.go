package core

import "strings"

// Category is one entry of the fixed expense category catalogue.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var categories = []Category{
	{1, "Alimentação"},
	{2, "Transporte"},
	{3, "Educação"},
	{4, "Lazer"},
	{5, "Moradia"},
	{6, "Saúde"},
	{7, "Serviços"},
	{8, "Imprevistos"},
	{9, "Investimentos"},
	{10, "Compras"},
}

// Categories returns a copy of the catalogue ordered by id.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func CategoryByID(id int) (Category, bool) {
	if id < 1 || id > len(categories) {
		return Category{}, false
	}
	return categories[id-1], true
}

// CategoryByName looks a category up case-insensitively.
func CategoryByName(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryName returns the display name for id, or "Sem categoria".
func CategoryName(id int) string {
	if c, ok := CategoryByID(id); ok {
		return c.Name
	}
	return "Sem categoria"
}
