package api

import (
	"encoding/json"
	"net/http"

	"github.com/ishoratech/ishoratech-backend/internal/database"
	"go.uber.org/zap"
)

type App struct {
	VideoRepo *database.VideoRepository
	Log       *zap.Logger
}

// VideoResponse is the public projection of a video: title/description fields
// exposed as word/definition, category flattened to its name.
type VideoResponse struct {
	WordLat         string `json:"word_lat"`
	WordKiril       string `json:"word_kiril"`
	WordRu          string `json:"word_ru"`
	DefinitionLat   string `json:"definition_lat"`
	DefinitionKiril string `json:"definition_kiril"`
	DefinitionRu    string `json:"definition_ru"`
	Category        string `json:"category"`
	TelegramFileID  string `json:"telegram_file_id"`
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (app *App) HomeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"message": "Welcome to IshoraTech API",
		"endpoints": map[string]string{
			"videos": "/videos/",
		},
	})
}

// ListVideosHandler serves the published catalog, newest first. No query
// parameters are recognized.
func (app *App) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	videos, err := app.VideoRepo.ListPublished()
	if err != nil {
		app.Log.Error("failed to list published videos", zap.Error(err))
		http.Error(w, "Error loading videos", http.StatusInternalServerError)
		return
	}

	response := make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		response = append(response, VideoResponse{
			WordLat:         v.TitleLat,
			WordKiril:       v.TitleKiril,
			WordRu:          v.TitleRu,
			DefinitionLat:   v.DescriptionLat,
			DefinitionKiril: v.DescriptionKiril,
			DefinitionRu:    v.DescriptionRu,
			Category:        v.CategoryName,
			TelegramFileID:  v.TelegramFileID,
		})
	}

	writeJSON(w, response)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Error encoding response", http.StatusInternalServerError)
	}
}
