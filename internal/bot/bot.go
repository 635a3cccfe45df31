package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ishoratech/ishoratech-backend/internal/config"
	"github.com/ishoratech/ishoratech-backend/internal/database"
	"github.com/ishoratech/ishoratech-backend/internal/errs"
	"github.com/ishoratech/ishoratech-backend/internal/intake"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const deletePrefix = "delete:"

// Bot wires the Telegram transport to the intake machine and the management
// operations. All privileged handlers go through the authorization guard.
type Bot struct {
	tb      *tele.Bot
	cfg     *config.Config
	machine *intake.Machine
	videos  *database.VideoRepository
	log     *zap.Logger
}

func New(cfg *config.Config, machine *intake.Machine, videos *database.VideoRepository, log *zap.Logger) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error("bot handler error", zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		tb:      tb,
		cfg:     cfg,
		machine: machine,
		videos:  videos,
		log:     log,
	}
	b.register()
	return b, nil
}

// Start begins long polling and blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info("bot polling started")
	b.tb.Start()
}

func (b *Bot) Stop() {
	b.tb.Stop()
}

func (b *Bot) register() {
	b.tb.Handle("/start", b.guard(b.handleStart))

	b.tb.Handle("/addvideo", b.guard(b.handleAddVideo))
	b.tb.Handle(intake.MenuAddVideo, b.guard(b.handleAddVideo))

	b.tb.Handle("/addcategory", b.guard(b.handleAddCategory))
	b.tb.Handle(intake.MenuAddCategory, b.guard(b.handleAddCategory))

	b.tb.Handle("/listvideos", b.guard(b.handleListVideos))
	b.tb.Handle(intake.MenuListVideos, b.guard(b.handleListVideos))

	b.tb.Handle("/cancel", b.guard(b.handleCancel))

	b.tb.Handle(tele.OnVideo, b.guard(b.handleVideo))
	b.tb.Handle(tele.OnText, b.guard(b.handleText))
	b.tb.Handle(tele.OnCallback, b.guard(b.handleCallback))
}

// guard is the single authorization check wrapping every privileged handler.
// Rejections include the caller's ID so operators can extend the allow-list.
func (b *Bot) guard(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil || !b.cfg.IsAdmin(sender.ID) {
			var id int64
			if sender != nil {
				id = sender.ID
			}
			b.log.Warn("unauthorized access attempt", zap.Int64("user_id", id))
			if c.Callback() != nil {
				_ = c.Respond()
			}
			return c.Send(fmt.Sprintf("⛔ You are not authorized. Your ID is: %d", id))
		}
		return next(c)
	}
}

func (b *Bot) handleStart(c tele.Context) error {
	return c.Send("👋 Welcome to IshoraTech Admin Bot!\nSelect an option below:", mainMenuMarkup())
}

func (b *Bot) handleAddVideo(c tele.Context) error {
	return b.send(c, b.machine.StartVideoIntake(c.Chat().ID))
}

func (b *Bot) handleAddCategory(c tele.Context) error {
	return b.send(c, b.machine.StartCategoryIntake(c.Chat().ID))
}

func (b *Bot) handleCancel(c tele.Context) error {
	return b.send(c, b.machine.Cancel(c.Chat().ID))
}

func (b *Bot) handleVideo(c tele.Context) error {
	video := c.Message().Video
	replies, handled := b.machine.Handle(c.Chat().ID, intake.MediaEvent{FileID: video.FileID})
	if !handled {
		return nil
	}
	return b.send(c, replies)
}

func (b *Bot) handleText(c tele.Context) error {
	replies, handled := b.machine.Handle(c.Chat().ID, intake.TextEvent{Text: c.Text()})
	if !handled {
		return nil
	}
	return b.send(c, replies)
}

func (b *Bot) handleCallback(c tele.Context) error {
	defer func() { _ = c.Respond() }()

	data := strings.TrimSpace(c.Callback().Data)

	if id, ok := strings.CutPrefix(data, deletePrefix); ok {
		return b.handleDelete(c, id)
	}

	replies, handled := b.machine.Handle(c.Chat().ID, intake.SelectionEvent{Data: data})
	if !handled {
		return nil
	}
	return b.send(c, replies)
}

func (b *Bot) handleListVideos(c tele.Context) error {
	// mid-flow the trigger aborts the flow, like the other menu buttons
	if replies, handled := b.machine.Handle(c.Chat().ID, intake.TextEvent{Text: intake.MenuListVideos}); handled {
		return b.send(c, replies)
	}

	videos, err := b.videos.ListAll()
	if err != nil {
		b.log.Error("failed to list videos", zap.Error(err))
		return c.Send("❌ Failed to load videos.")
	}
	if len(videos) == 0 {
		return c.Send("No videos found.")
	}

	if err := c.Send("📺 Video List:"); err != nil {
		return err
	}
	for _, v := range videos {
		text := fmt.Sprintf("ID: %s\nTitle: %s\nCategory: %s", v.ID, v.TitleLat, v.CategoryName)
		if err := c.Send(text, deleteMarkup(v.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleDelete(c tele.Context, id string) error {
	video, err := b.videos.GetByID(id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return tryEdit(c, "❌ Video not found or already deleted.")
		}
		b.log.Error("failed to look up video", zap.String("id", id), zap.Error(err))
		return tryEdit(c, "❌ Failed to delete video.")
	}

	if err := b.videos.Delete(id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return tryEdit(c, "❌ Video not found or already deleted.")
		}
		b.log.Error("failed to delete video", zap.String("id", id), zap.Error(err))
		return tryEdit(c, "❌ Failed to delete video.")
	}

	b.log.Info("video deleted", zap.String("id", id), zap.String("title", video.TitleLat))
	return tryEdit(c, fmt.Sprintf("✅ Video '%s' (ID: %s) deleted.", video.TitleLat, video.ID))
}

func (b *Bot) send(c tele.Context, replies []intake.Reply) error {
	for _, r := range replies {
		markup := markupFor(r)
		var err error
		if r.Edit {
			err = tryEdit(c, r.Text, markup)
		} else if markup != nil {
			err = c.Send(r.Text, markup)
		} else {
			err = c.Send(r.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// tryEdit edits the message behind the callback, falling back to a plain send
// when the message cannot be edited anymore.
func tryEdit(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var err error
	if len(markup) > 0 && markup[0] != nil {
		err = c.Edit(text, markup[0])
	} else {
		err = c.Edit(text)
	}
	if err == nil {
		return nil
	}
	if len(markup) > 0 && markup[0] != nil {
		return c.Send(text, markup[0])
	}
	return c.Send(text)
}
