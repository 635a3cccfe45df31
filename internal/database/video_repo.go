package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ishoratech/ishoratech-backend/internal/errs"
	"github.com/ishoratech/ishoratech-backend/internal/models"
)

type VideoRepository struct {
	db *DB
}

func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Insert(video *models.Video) error {
	if video.TelegramFileID == "" {
		return fmt.Errorf("telegram_file_id is required")
	}
	if video.CategoryID == "" {
		return fmt.Errorf("category_id is required")
	}

	_, err := r.db.conn.Exec(`
		INSERT INTO videos (
			id, title_lat, title_kiril, title_ru,
			description_lat, description_kiril, description_ru,
			category_id, telegram_file_id, is_published, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		video.ID, video.TitleLat, video.TitleKiril, video.TitleRu,
		video.DescriptionLat, video.DescriptionKiril, video.DescriptionRu,
		video.CategoryID, video.TelegramFileID, video.IsPublished, video.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

func (r *VideoRepository) GetByID(id string) (*models.Video, error) {
	video, err := r.scanOne(r.db.conn.QueryRow(selectVideos+" WHERE v.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("video %s: %w", id, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return video, nil
}

// ListPublished returns published videos newest-first, for the public API.
func (r *VideoRepository) ListPublished() ([]models.Video, error) {
	return r.list(selectVideos + " WHERE v.is_published = 1 ORDER BY v.created_at DESC")
}

// ListAll returns every video newest-first, published or not, for the
// management view.
func (r *VideoRepository) ListAll() ([]models.Video, error) {
	return r.list(selectVideos + " ORDER BY v.created_at DESC")
}

func (r *VideoRepository) Delete(id string) error {
	result, err := r.db.conn.Exec("DELETE FROM videos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("video %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

const selectVideos = `
	SELECT v.id, v.title_lat, v.title_kiril, v.title_ru,
	       v.description_lat, v.description_kiril, v.description_ru,
	       v.category_id, c.name, v.telegram_file_id, v.is_published, v.created_at
	FROM videos v
	JOIN categories c ON c.id = v.category_id`

func (r *VideoRepository) list(query string) ([]models.Video, error) {
	rows, err := r.db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *video)
	}
	return videos, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *VideoRepository) scanOne(row rowScanner) (*models.Video, error) {
	var video models.Video
	err := row.Scan(
		&video.ID, &video.TitleLat, &video.TitleKiril, &video.TitleRu,
		&video.DescriptionLat, &video.DescriptionKiril, &video.DescriptionRu,
		&video.CategoryID, &video.CategoryName, &video.TelegramFileID,
		&video.IsPublished, &video.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &video, nil
}
