package bot

import (
	"github.com/ishoratech/ishoratech-backend/internal/intake"
	tele "gopkg.in/telebot.v3"
)

func mainMenuMarkup() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	btnAddVideo := m.Text(intake.MenuAddVideo)
	btnListVideos := m.Text(intake.MenuListVideos)
	btnAddCategory := m.Text(intake.MenuAddCategory)
	m.Reply(
		m.Row(btnAddVideo, btnListVideos),
		m.Row(btnAddCategory),
	)
	return m
}

// choicesMarkup renders machine choices as one inline button per row, with
// the raw selection payload as callback data.
func choicesMarkup(choices []intake.Choice) *tele.ReplyMarkup {
	rows := make([][]tele.InlineButton, 0, len(choices))
	for _, ch := range choices {
		rows = append(rows, []tele.InlineButton{{Text: ch.Label, Data: ch.Data}})
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func deleteMarkup(videoID string) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{{Text: "❌ Delete", Data: deletePrefix + videoID}},
	}}
}

func markupFor(r intake.Reply) *tele.ReplyMarkup {
	switch r.Keyboard {
	case intake.KeyboardMainMenu:
		return mainMenuMarkup()
	case intake.KeyboardChoices:
		return choicesMarkup(r.Choices)
	}
	return nil
}
