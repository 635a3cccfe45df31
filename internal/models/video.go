package models

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID               string
	TitleLat         string
	TitleKiril       string
	TitleRu          string
	DescriptionLat   string
	DescriptionKiril string
	DescriptionRu    string
	CategoryID       string
	CategoryName     string // populated on reads via join, never stored on the video row
	TelegramFileID   string
	IsPublished      bool
	CreatedAt        time.Time
}

func NewVideo(titleLat, titleKiril, titleRu, descLat, descKiril, descRu, categoryID, telegramFileID string) *Video {
	return &Video{
		ID:               uuid.New().String(),
		TitleLat:         titleLat,
		TitleKiril:       titleKiril,
		TitleRu:          titleRu,
		DescriptionLat:   descLat,
		DescriptionKiril: descKiril,
		DescriptionRu:    descRu,
		CategoryID:       categoryID,
		TelegramFileID:   telegramFileID,
		IsPublished:      true,
		CreatedAt:        time.Now().UTC(),
	}
}
