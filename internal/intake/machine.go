package intake

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ishoratech/ishoratech-backend/internal/database"
	"github.com/ishoratech/ishoratech-backend/internal/errs"
	"github.com/ishoratech/ishoratech-backend/internal/models"
	"go.uber.org/zap"
)

// skipToken stores an empty value for the optional Russian fields.
const skipToken = "skip"

const (
	msgUploadVideo     = "Please upload the video file:"
	msgSwitchContext   = "🔄 Switching context... Please click the button again to confirm."
	msgNewCategoryName = "Please enter the name of the new category:"
	msgCancelled       = "Operation cancelled."
	msgMainMenu        = "Select an option:"
	msgSessionExpired  = "⚠️ Session Expired\n\n" +
		"The bot was restarted, and your previous session is no longer active.\n" +
		"Please start the process again by clicking '➕ Add Video' in the main menu."
)

// Machine drives the conversational intake flows: the multi-step video flow
// and the single-step category flow. One session per chat; every transition
// goes through Handle or one of the Start/Cancel entry points. Transitions
// run one at a time: the transport dispatches each update on its own
// goroutine, and a transition reads and writes session state throughout.
type Machine struct {
	mu         sync.Mutex
	store      *SessionStore
	categories *database.CategoryRepository
	videos     *database.VideoRepository
	log        *zap.Logger
}

func NewMachine(store *SessionStore, categories *database.CategoryRepository, videos *database.VideoRepository, log *zap.Logger) *Machine {
	return &Machine{
		store:      store,
		categories: categories,
		videos:     videos,
		log:        log,
	}
}

// StartVideoIntake begins the add-video flow. Invoked mid-flow it acts as a
// context switch: the active session is dropped and the operator is asked to
// trigger the action again.
func (m *Machine) StartVideoIntake(chatID int64) []Reply {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.store.Get(chatID); ok {
		m.store.Clear(chatID)
		return []Reply{{Text: msgSwitchContext}}
	}
	m.store.Put(chatID, &Session{State: StateAwaitingMedia})
	return []Reply{{Text: msgUploadVideo}}
}

// StartCategoryIntake begins the standalone add-category flow.
func (m *Machine) StartCategoryIntake(chatID int64) []Reply {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.store.Get(chatID); ok {
		m.store.Clear(chatID)
		return []Reply{{Text: msgSwitchContext}}
	}
	m.store.Put(chatID, &Session{State: StateAwaitingCategoryName})
	return []Reply{{Text: msgNewCategoryName}}
}

// Cancel aborts whatever flow is active and returns the operator to the main
// menu. Valid in any state.
func (m *Machine) Cancel(chatID int64) []Reply {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.Clear(chatID)
	return []Reply{
		{Text: msgCancelled},
		{Text: msgMainMenu, Keyboard: KeyboardMainMenu},
	}
}

// Handle feeds one event into the chat's session. The second return value
// reports whether the machine consumed the event; an unconsumed event is one
// the caller should ignore (e.g. stray text with no flow active).
func (m *Machine) Handle(chatID int64, ev Event) ([]Reply, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, active := m.store.Get(chatID)

	switch e := ev.(type) {
	case MediaEvent:
		if !active || sess.State != StateAwaitingMedia {
			return nil, false
		}
		sess.Draft.FileID = e.FileID
		sess.State = StateAwaitingTitleLat
		return []Reply{{Text: "Video received.\n\n1️⃣ Enter Title (Latin):"}}, true

	case TextEvent:
		if !active {
			return nil, false
		}
		if isMenuTrigger(e.Text) {
			m.store.Clear(chatID)
			return []Reply{{Text: msgSwitchContext}}, true
		}
		return m.handleText(chatID, sess, e.Text)

	case SelectionEvent:
		return m.handleSelection(chatID, sess, active, e.Data)
	}

	return nil, false
}

func (m *Machine) handleText(chatID int64, sess *Session, text string) ([]Reply, bool) {
	switch sess.State {
	case StateAwaitingMedia:
		return []Reply{{Text: msgUploadVideo}}, true

	case StateAwaitingTitleLat:
		sess.Draft.TitleLat = text
		sess.State = StateAwaitingTitleKiril
		return []Reply{{Text: "2️⃣ Enter Title (Cyrillic):"}}, true

	case StateAwaitingTitleKiril:
		sess.Draft.TitleKiril = text
		sess.State = StateAwaitingTitleRu
		return []Reply{{Text: "3️⃣ Enter Title (Russian) - or type 'skip':"}}, true

	case StateAwaitingTitleRu:
		sess.Draft.TitleRu = skippable(text)
		sess.State = StateAwaitingDescLat
		return []Reply{{Text: "4️⃣ Enter Description (Latin):"}}, true

	case StateAwaitingDescLat:
		sess.Draft.DescLat = text
		sess.State = StateAwaitingDescKiril
		return []Reply{{Text: "5️⃣ Enter Description (Cyrillic):"}}, true

	case StateAwaitingDescKiril:
		sess.Draft.DescKiril = text
		sess.State = StateAwaitingDescRu
		return []Reply{{Text: "6️⃣ Enter Description (Russian) - or type 'skip':"}}, true

	case StateAwaitingDescRu:
		sess.Draft.DescRu = skippable(text)
		return m.presentCategories(sess)

	case StateAwaitingNewCategoryName:
		return m.createCategoryInline(sess, text)

	case StateAwaitingCategoryName:
		return m.createCategoryStandalone(chatID, text)
	}

	// text during a selection step carries no field; consume it silently
	return nil, true
}

func (m *Machine) presentCategories(sess *Session) ([]Reply, bool) {
	categories, err := m.categories.List()
	if err != nil {
		m.log.Error("failed to list categories", zap.Error(err))
		return []Reply{{Text: "❌ Failed to load categories. Please try again."}}, true
	}

	choices := make([]Choice, 0, len(categories)+1)
	for _, c := range categories {
		choices = append(choices, Choice{Label: c.Name, Data: SelectCategoryPrefix + c.ID})
	}
	choices = append(choices, Choice{Label: "➕ New Category", Data: SelectCategoryNew})

	sess.State = StateAwaitingCategory
	return []Reply{{
		Text:     "7️⃣ Select a Category or create a new one:",
		Keyboard: KeyboardChoices,
		Choices:  choices,
	}}, true
}

func (m *Machine) createCategoryInline(sess *Session, name string) ([]Reply, bool) {
	category, err := m.categories.GetOrCreate(name)
	if err != nil {
		m.log.Error("failed to get-or-create category", zap.String("name", name), zap.Error(err))
		return []Reply{{Text: "❌ Failed to create category. Please try again."}}, true
	}

	sess.Draft.CategoryID = category.ID
	sess.Draft.CategoryName = category.Name
	sess.State = StateAwaitingConfirmation

	return []Reply{
		{Text: fmt.Sprintf("✅ Category '%s' created and selected.", category.Name)},
		confirmationSummary(sess.Draft, false),
	}, true
}

func (m *Machine) createCategoryStandalone(chatID int64, name string) ([]Reply, bool) {
	m.store.Clear(chatID)

	category, err := m.categories.Create(name)
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return []Reply{{Text: fmt.Sprintf("Category '%s' already exists.", name)}}, true
		}
		m.log.Error("failed to create category", zap.String("name", name), zap.Error(err))
		return []Reply{{Text: "❌ Failed to create category."}}, true
	}

	return []Reply{{Text: fmt.Sprintf("✅ Category '%s' created successfully!", category.Name)}}, true
}

func (m *Machine) handleSelection(chatID int64, sess *Session, active bool, data string) ([]Reply, bool) {
	// Selection for a vanished session: the process restarted and the
	// in-memory draft is gone. Say so instead of failing silently.
	if !active {
		return []Reply{{Text: msgSessionExpired, Edit: true}}, true
	}

	switch sess.State {
	case StateAwaitingCategory:
		if data == SelectCategoryNew {
			sess.State = StateAwaitingNewCategoryName
			return []Reply{{Text: msgNewCategoryName, Edit: true}}, true
		}
		if id, ok := strings.CutPrefix(data, SelectCategoryPrefix); ok {
			return m.selectCategory(sess, id)
		}

	case StateAwaitingConfirmation:
		switch data {
		case SelectConfirmYes:
			return m.commit(chatID, sess)
		case SelectConfirmNo:
			m.store.Clear(chatID)
			return []Reply{
				{Text: "❌ Operation cancelled.", Edit: true},
				{Text: msgMainMenu, Keyboard: KeyboardMainMenu},
			}, true
		}
	}

	// stray button press from an earlier step of the live flow
	return nil, true
}

func (m *Machine) selectCategory(sess *Session, id string) ([]Reply, bool) {
	category, err := m.categories.GetByID(id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return []Reply{{Text: "❌ Category not found. Please select again.", Edit: true}}, true
		}
		m.log.Error("failed to get category", zap.String("id", id), zap.Error(err))
		return []Reply{{Text: "❌ Failed to select category. Please try again.", Edit: true}}, true
	}

	sess.Draft.CategoryID = category.ID
	sess.Draft.CategoryName = category.Name
	sess.State = StateAwaitingConfirmation
	return []Reply{confirmationSummary(sess.Draft, true)}, true
}

// commit persists the accumulated draft as a single published video. The
// draft is cleared whether the insert succeeds or not; the conversation
// always returns to the main menu.
func (m *Machine) commit(chatID int64, sess *Session) ([]Reply, bool) {
	draft := sess.Draft
	m.store.Clear(chatID)

	video := models.NewVideo(
		draft.TitleLat, draft.TitleKiril, draft.TitleRu,
		draft.DescLat, draft.DescKiril, draft.DescRu,
		draft.CategoryID, draft.FileID,
	)
	if err := m.videos.Insert(video); err != nil {
		m.log.Error("failed to save video", zap.Error(err))
		return []Reply{
			{Text: "❌ Failed to save video.", Edit: true},
			{Text: msgMainMenu, Keyboard: KeyboardMainMenu},
		}, true
	}

	m.log.Info("video committed",
		zap.String("video_id", video.ID),
		zap.String("category", draft.CategoryName))

	return []Reply{
		{Text: "✅ Video saved and published!", Edit: true},
		{Text: msgMainMenu, Keyboard: KeyboardMainMenu},
	}, true
}

func confirmationSummary(d Draft, edit bool) Reply {
	return Reply{
		Text: fmt.Sprintf("Title (Lat): %s\nTitle (Kir): %s\nCategory: %s\n\nSave this video?",
			d.TitleLat, d.TitleKiril, d.CategoryName),
		Keyboard: KeyboardChoices,
		Choices: []Choice{
			{Label: "✅ Yes, Save", Data: SelectConfirmYes},
			{Label: "❌ Cancel", Data: SelectConfirmNo},
		},
		Edit: edit,
	}
}

func skippable(text string) string {
	if strings.EqualFold(text, skipToken) {
		return ""
	}
	return text
}
