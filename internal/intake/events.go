package intake

// Event is one incoming chat turn. The machine dispatches on the concrete
// variant; there is no other way to feed it input.
type Event interface {
	isEvent()
}

// TextEvent is a plain text message from the operator.
type TextEvent struct {
	Text string
}

// MediaEvent is a video attachment; FileID is the transport's opaque handle,
// stored verbatim and never interpreted.
type MediaEvent struct {
	FileID string
}

// SelectionEvent is an inline-button press carrying its callback payload,
// e.g. "category:<id>", "category:new", "confirm:yes", "confirm:no".
type SelectionEvent struct {
	Data string
}

func (TextEvent) isEvent()      {}
func (MediaEvent) isEvent()     {}
func (SelectionEvent) isEvent() {}

// Selection payloads understood by the machine.
const (
	SelectCategoryPrefix = "category:"
	SelectCategoryNew    = "category:new"
	SelectConfirmYes     = "confirm:yes"
	SelectConfirmNo      = "confirm:no"
)

// Main-menu trigger phrases. Receiving one mid-flow aborts the flow instead
// of being swallowed as a field value.
const (
	MenuAddVideo    = "➕ Add Video"
	MenuListVideos  = "📋 List Videos"
	MenuAddCategory = "➕ Add Category"
)

func isMenuTrigger(text string) bool {
	switch text {
	case MenuAddVideo, MenuListVideos, MenuAddCategory:
		return true
	}
	return false
}

// Keyboard tells the transport adapter which keyboard to attach to a reply.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardMainMenu
	KeyboardChoices
)

// Choice is one inline button: a label and the selection payload it sends back.
type Choice struct {
	Label string
	Data  string
}

// Reply is one outgoing message. Edit asks the adapter to edit the message
// that carried the triggering selection instead of sending a new one.
type Reply struct {
	Text     string
	Keyboard Keyboard
	Choices  []Choice
	Edit     bool
}
