package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ishoratech/ishoratech-backend/internal/errs"
	"github.com/ishoratech/ishoratech-backend/internal/models"
	sqlite3 "github.com/mattn/go-sqlite3"
)

type CategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a new category, failing with errs.ErrConflict when the name
// is already taken.
func (r *CategoryRepository) Create(name string) (*models.Category, error) {
	existing, err := r.getByName(name)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("category %q: %w", name, errs.ErrConflict)
	}

	category := models.NewCategory(name)
	if err := r.insert(category); err != nil {
		return nil, err
	}
	return category, nil
}

// insert relies on the UNIQUE constraint to report a conflict; a concurrent
// create can slip past the existence check above.
func (r *CategoryRepository) insert(category *models.Category) error {
	_, err := r.db.conn.Exec(
		"INSERT INTO categories (id, name) VALUES (?, ?)",
		category.ID, category.Name,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("category %q: %w", category.Name, errs.ErrConflict)
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// GetOrCreate returns the category with the given name, creating it first if
// needed. Calling it twice with the same name yields the same category.
func (r *CategoryRepository) GetOrCreate(name string) (*models.Category, error) {
	existing, err := r.getByName(name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}
	return r.Create(name)
}

func (r *CategoryRepository) GetByID(id string) (*models.Category, error) {
	var category models.Category
	err := r.db.conn.QueryRow(
		"SELECT id, name FROM categories WHERE id = ?", id,
	).Scan(&category.ID, &category.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %s: %w", id, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) List() ([]models.Category, error) {
	rows, err := r.db.conn.Query("SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) getByName(name string) (*models.Category, error) {
	var category models.Category
	err := r.db.conn.QueryRow(
		"SELECT id, name FROM categories WHERE name = ?", name,
	).Scan(&category.ID, &category.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}
