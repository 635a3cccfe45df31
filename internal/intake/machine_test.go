package intake

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ishoratech/ishoratech-backend/internal/database"
	"go.uber.org/zap"
)

const testChatID int64 = 42

type testEnv struct {
	machine    *Machine
	store      *SessionStore
	categories *database.CategoryRepository
	videos     *database.VideoRepository
}

func setupTestMachine(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewSessionStore()
	categories := database.NewCategoryRepository(db)
	videos := database.NewVideoRepository(db)

	return &testEnv{
		machine:    NewMachine(store, categories, videos, zap.NewNop()),
		store:      store,
		categories: categories,
		videos:     videos,
	}
}

// runToCategoryStep drives a fresh flow up to the category selection prompt.
func (env *testEnv) runToCategoryStep(t *testing.T) []Reply {
	t.Helper()

	env.machine.StartVideoIntake(testChatID)
	steps := []Event{
		MediaEvent{FileID: "file_abc"},
		TextEvent{Text: "Apple"},
		TextEvent{Text: "Olma"},
		TextEvent{Text: "Яблоко"},
		TextEvent{Text: "A fruit"},
		TextEvent{Text: "Meva"},
	}
	for _, ev := range steps {
		if _, handled := env.machine.Handle(testChatID, ev); !handled {
			t.Fatalf("Event %+v not handled", ev)
		}
	}

	replies, handled := env.machine.Handle(testChatID, TextEvent{Text: "Фрукт"})
	if !handled {
		t.Fatal("Final description not handled")
	}
	return replies
}

func (env *testEnv) mustCountVideos(t *testing.T) int {
	t.Helper()
	videos, err := env.videos.ListAll()
	if err != nil {
		t.Fatalf("Failed to list videos: %v", err)
	}
	return len(videos)
}

func TestVideoIntake_HappyPath(t *testing.T) {
	env := setupTestMachine(t)

	category, err := env.categories.GetOrCreate("Fruit")
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}

	replies := env.runToCategoryStep(t)
	if len(replies) != 1 || replies[0].Keyboard != KeyboardChoices {
		t.Fatalf("Expected category choices, got %+v", replies)
	}
	// existing category plus the "new" option
	if len(replies[0].Choices) != 2 {
		t.Fatalf("Expected 2 choices, got %d", len(replies[0].Choices))
	}
	if replies[0].Choices[0].Data != SelectCategoryPrefix+category.ID {
		t.Errorf("Unexpected choice payload: %s", replies[0].Choices[0].Data)
	}

	replies, handled := env.machine.Handle(testChatID, SelectionEvent{Data: SelectCategoryPrefix + category.ID})
	if !handled {
		t.Fatal("Category selection not handled")
	}
	if len(replies) != 1 || !strings.Contains(replies[0].Text, "Save this video?") {
		t.Fatalf("Expected confirmation summary, got %+v", replies)
	}
	if !strings.Contains(replies[0].Text, "Apple") || !strings.Contains(replies[0].Text, "Fruit") {
		t.Errorf("Summary missing title or category: %s", replies[0].Text)
	}

	replies, handled = env.machine.Handle(testChatID, SelectionEvent{Data: SelectConfirmYes})
	if !handled {
		t.Fatal("Confirmation not handled")
	}
	if !strings.Contains(replies[0].Text, "saved and published") {
		t.Errorf("Unexpected commit reply: %s", replies[0].Text)
	}

	videos, err := env.videos.ListPublished()
	if err != nil {
		t.Fatalf("Failed to list videos: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("Expected exactly 1 committed video, got %d", len(videos))
	}
	v := videos[0]
	if v.TitleLat != "Apple" || v.TitleKiril != "Olma" || v.TitleRu != "Яблоко" {
		t.Errorf("Unexpected titles: %+v", v)
	}
	if v.DescriptionLat != "A fruit" || v.DescriptionKiril != "Meva" || v.DescriptionRu != "Фрукт" {
		t.Errorf("Unexpected descriptions: %+v", v)
	}
	if v.TelegramFileID != "file_abc" {
		t.Errorf("Expected file id file_abc, got %s", v.TelegramFileID)
	}
	if v.CategoryName != "Fruit" {
		t.Errorf("Expected category Fruit, got %s", v.CategoryName)
	}
	if !v.IsPublished {
		t.Error("Expected committed video to be published")
	}

	if _, ok := env.store.Get(testChatID); ok {
		t.Error("Expected session to be cleared after commit")
	}
}

func TestVideoIntake_RejectLeavesNoVideo(t *testing.T) {
	env := setupTestMachine(t)

	category, _ := env.categories.GetOrCreate("Fruit")
	env.runToCategoryStep(t)
	env.machine.Handle(testChatID, SelectionEvent{Data: SelectCategoryPrefix + category.ID})

	replies, handled := env.machine.Handle(testChatID, SelectionEvent{Data: SelectConfirmNo})
	if !handled {
		t.Fatal("Rejection not handled")
	}
	if !strings.Contains(replies[0].Text, "cancelled") {
		t.Errorf("Unexpected rejection reply: %s", replies[0].Text)
	}

	if n := env.mustCountVideos(t); n != 0 {
		t.Errorf("Expected no videos after rejection, got %d", n)
	}
	if _, ok := env.store.Get(testChatID); ok {
		t.Error("Expected session to be cleared after rejection")
	}
}

func TestVideoIntake_SkipTokenStoresEmpty(t *testing.T) {
	env := setupTestMachine(t)
	category, _ := env.categories.GetOrCreate("Fruit")

	env.machine.StartVideoIntake(testChatID)
	env.machine.Handle(testChatID, MediaEvent{FileID: "file_abc"})
	env.machine.Handle(testChatID, TextEvent{Text: "Apple"})
	env.machine.Handle(testChatID, TextEvent{Text: "Olma"})
	env.machine.Handle(testChatID, TextEvent{Text: "SKIP"})
	env.machine.Handle(testChatID, TextEvent{Text: "A fruit"})
	env.machine.Handle(testChatID, TextEvent{Text: "Meva"})
	env.machine.Handle(testChatID, TextEvent{Text: "Skip"})
	env.machine.Handle(testChatID, SelectionEvent{Data: SelectCategoryPrefix + category.ID})
	env.machine.Handle(testChatID, SelectionEvent{Data: SelectConfirmYes})

	videos, err := env.videos.ListPublished()
	if err != nil || len(videos) != 1 {
		t.Fatalf("Expected 1 video, got %d (err %v)", len(videos), err)
	}
	if videos[0].TitleRu != "" {
		t.Errorf("Expected empty Russian title, got %q", videos[0].TitleRu)
	}
	if videos[0].DescriptionRu != "" {
		t.Errorf("Expected empty Russian description, got %q", videos[0].DescriptionRu)
	}
}

func TestVideoIntake_MenuInterceptionClearsDraft(t *testing.T) {
	env := setupTestMachine(t)

	for _, trigger := range []string{MenuAddVideo, MenuListVideos, MenuAddCategory} {
		env.machine.StartVideoIntake(testChatID)
		env.machine.Handle(testChatID, MediaEvent{FileID: "file_abc"})
		env.machine.Handle(testChatID, TextEvent{Text: "Apple"})

		replies, handled := env.machine.Handle(testChatID, TextEvent{Text: trigger})
		if !handled {
			t.Fatalf("Menu trigger %q not handled", trigger)
		}
		if !strings.Contains(replies[0].Text, "Switching context") {
			t.Errorf("Expected context-switch notice for %q, got %s", trigger, replies[0].Text)
		}
		if _, ok := env.store.Get(testChatID); ok {
			t.Errorf("Expected session cleared after %q", trigger)
		}
	}

	if n := env.mustCountVideos(t); n != 0 {
		t.Errorf("Expected no partial videos committed, got %d", n)
	}
}

func TestVideoIntake_StaleSelectionYieldsRestartPrompt(t *testing.T) {
	env := setupTestMachine(t)

	for _, data := range []string{
		SelectCategoryPrefix + "some-id",
		SelectCategoryNew,
		SelectConfirmYes,
		SelectConfirmNo,
	} {
		replies, handled := env.machine.Handle(testChatID, SelectionEvent{Data: data})
		if !handled {
			t.Fatalf("Stale selection %q not handled", data)
		}
		if !strings.Contains(replies[0].Text, "Session Expired") {
			t.Errorf("Expected session-expired reply for %q, got %s", data, replies[0].Text)
		}
	}

	if n := env.mustCountVideos(t); n != 0 {
		t.Errorf("Expected zero storage mutations, got %d videos", n)
	}
	categories, _ := env.categories.List()
	if len(categories) != 0 {
		t.Errorf("Expected zero categories, got %d", len(categories))
	}
}

func TestVideoIntake_CancelFromAnyState(t *testing.T) {
	env := setupTestMachine(t)

	env.machine.StartVideoIntake(testChatID)
	env.machine.Handle(testChatID, MediaEvent{FileID: "file_abc"})
	env.machine.Handle(testChatID, TextEvent{Text: "Apple"})

	replies := env.machine.Cancel(testChatID)
	if !strings.Contains(replies[0].Text, "cancelled") {
		t.Errorf("Unexpected cancel reply: %s", replies[0].Text)
	}
	if replies[len(replies)-1].Keyboard != KeyboardMainMenu {
		t.Error("Expected cancel to return to the main menu")
	}
	if _, ok := env.store.Get(testChatID); ok {
		t.Error("Expected session cleared after cancel")
	}

	// subsequent text has no flow to land in
	if _, handled := env.machine.Handle(testChatID, TextEvent{Text: "Olma"}); handled {
		t.Error("Expected text after cancel to be unhandled")
	}
}

func TestVideoIntake_NewCategoryInline(t *testing.T) {
	env := setupTestMachine(t)

	env.runToCategoryStep(t)

	replies, handled := env.machine.Handle(testChatID, SelectionEvent{Data: SelectCategoryNew})
	if !handled || !strings.Contains(replies[0].Text, "name of the new category") {
		t.Fatalf("Expected new-category prompt, got %+v", replies)
	}

	replies, handled = env.machine.Handle(testChatID, TextEvent{Text: "Fruit"})
	if !handled {
		t.Fatal("Category name not handled")
	}
	if !strings.Contains(replies[0].Text, "created and selected") {
		t.Errorf("Unexpected ack: %s", replies[0].Text)
	}
	if !strings.Contains(replies[1].Text, "Save this video?") {
		t.Errorf("Expected confirmation summary, got %s", replies[1].Text)
	}

	env.machine.Handle(testChatID, SelectionEvent{Data: SelectConfirmYes})

	videos, _ := env.videos.ListPublished()
	if len(videos) != 1 || videos[0].CategoryName != "Fruit" {
		t.Fatalf("Expected video in category Fruit, got %+v", videos)
	}

	// the inline path is get-or-create: a second flow reusing the name must
	// not duplicate the category
	env.runToCategoryStep(t)
	env.machine.Handle(testChatID, SelectionEvent{Data: SelectCategoryNew})
	env.machine.Handle(testChatID, TextEvent{Text: "Fruit"})
	env.machine.Handle(testChatID, SelectionEvent{Data: SelectConfirmYes})

	categories, _ := env.categories.List()
	if len(categories) != 1 {
		t.Errorf("Expected 1 category after reuse, got %d", len(categories))
	}
}

func TestVideoIntake_MediaOutsideMediaStepIgnored(t *testing.T) {
	env := setupTestMachine(t)

	env.machine.StartVideoIntake(testChatID)
	env.machine.Handle(testChatID, MediaEvent{FileID: "file_abc"})

	// a second video while awaiting the title must not overwrite the draft
	if _, handled := env.machine.Handle(testChatID, MediaEvent{FileID: "file_other"}); handled {
		t.Error("Expected media outside the media step to be unhandled")
	}

	sess, ok := env.store.Get(testChatID)
	if !ok || sess.Draft.FileID != "file_abc" {
		t.Errorf("Expected draft to keep file_abc, got %+v", sess)
	}
}

func TestVideoIntake_StraySelectionInLiveFlowIgnored(t *testing.T) {
	env := setupTestMachine(t)

	env.machine.StartVideoIntake(testChatID)
	env.machine.Handle(testChatID, MediaEvent{FileID: "file_abc"})

	replies, handled := env.machine.Handle(testChatID, SelectionEvent{Data: SelectConfirmYes})
	if !handled {
		t.Fatal("Expected stray selection to be consumed")
	}
	if len(replies) != 0 {
		t.Errorf("Expected no replies for stray selection, got %+v", replies)
	}
	if n := env.mustCountVideos(t); n != 0 {
		t.Errorf("Expected no commit from stray selection, got %d videos", n)
	}
}

func TestVideoIntake_ConcurrentEventsSerialized(t *testing.T) {
	env := setupTestMachine(t)

	env.machine.StartVideoIntake(testChatID)
	env.machine.Handle(testChatID, MediaEvent{FileID: "file_abc"})

	// the transport delivers each update on its own goroutine; two rapid
	// messages must land in consecutive fields, never the same one
	var wg sync.WaitGroup
	for _, text := range []string{"Apple", "Olma"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			env.machine.Handle(testChatID, TextEvent{Text: text})
		}(text)
	}
	wg.Wait()

	sess, ok := env.store.Get(testChatID)
	if !ok {
		t.Fatal("Expected a live session")
	}
	if sess.State != StateAwaitingTitleRu {
		t.Fatalf("Expected both texts consumed, state is %d", sess.State)
	}
	got := map[string]bool{sess.Draft.TitleLat: true, sess.Draft.TitleKiril: true}
	if !got["Apple"] || !got["Olma"] {
		t.Errorf("Expected both titles captured once, got %q / %q",
			sess.Draft.TitleLat, sess.Draft.TitleKiril)
	}
}

func TestVideoIntake_RestartMidFlowSwitchesContext(t *testing.T) {
	env := setupTestMachine(t)

	env.machine.StartVideoIntake(testChatID)
	env.machine.Handle(testChatID, MediaEvent{FileID: "file_abc"})

	replies := env.machine.StartVideoIntake(testChatID)
	if !strings.Contains(replies[0].Text, "Switching context") {
		t.Errorf("Expected context switch, got %s", replies[0].Text)
	}
	if _, ok := env.store.Get(testChatID); ok {
		t.Error("Expected session cleared by context switch")
	}

	// the next trigger starts a fresh flow
	replies = env.machine.StartVideoIntake(testChatID)
	if !strings.Contains(replies[0].Text, "upload the video") {
		t.Errorf("Expected fresh flow prompt, got %s", replies[0].Text)
	}
}

func TestCategoryIntake_CreatesCategory(t *testing.T) {
	env := setupTestMachine(t)

	replies := env.machine.StartCategoryIntake(testChatID)
	if !strings.Contains(replies[0].Text, "name of the new category") {
		t.Fatalf("Unexpected prompt: %s", replies[0].Text)
	}

	replies, handled := env.machine.Handle(testChatID, TextEvent{Text: "Fruit"})
	if !handled || !strings.Contains(replies[0].Text, "created successfully") {
		t.Fatalf("Expected success reply, got %+v", replies)
	}

	categories, err := env.categories.List()
	if err != nil || len(categories) != 1 {
		t.Fatalf("Expected 1 category, got %d (err %v)", len(categories), err)
	}
	if _, ok := env.store.Get(testChatID); ok {
		t.Error("Expected session cleared after category creation")
	}
}

func TestCategoryIntake_DuplicateSurfacesConflict(t *testing.T) {
	env := setupTestMachine(t)

	if _, err := env.categories.Create("Fruit"); err != nil {
		t.Fatalf("Failed to seed category: %v", err)
	}

	env.machine.StartCategoryIntake(testChatID)
	replies, handled := env.machine.Handle(testChatID, TextEvent{Text: "Fruit"})
	if !handled || !strings.Contains(replies[0].Text, "already exists") {
		t.Fatalf("Expected conflict reply, got %+v", replies)
	}

	categories, _ := env.categories.List()
	if len(categories) != 1 {
		t.Errorf("Expected no duplicate category, got %d", len(categories))
	}
}

func TestCategoryIntake_MenuInterception(t *testing.T) {
	env := setupTestMachine(t)

	env.machine.StartCategoryIntake(testChatID)
	replies, handled := env.machine.Handle(testChatID, TextEvent{Text: MenuListVideos})
	if !handled || !strings.Contains(replies[0].Text, "Switching context") {
		t.Fatalf("Expected context switch, got %+v", replies)
	}

	categories, _ := env.categories.List()
	if len(categories) != 0 {
		t.Errorf("Expected no category created, got %d", len(categories))
	}
}
