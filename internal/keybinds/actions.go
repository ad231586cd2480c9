package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the context in which keybindings are active
type Context string

const (
	ContextGlobal    Context = "global"     // Available everywhere, including while typing
	ContextCompose   Context = "compose"    // Text area focused
	ContextResults   Context = "results"    // Result panel focused
	ContextTextInput Context = "text_input" // PDF path prompt and history search
	ContextHistory   Context = "history"    // History browser
	ContextStats     Context = "stats"      // Per-mode statistics
	ContextHelp      Context = "help"       // Key reference
	ContextConfirm   Context = "confirm"    // Confirmation dialogs
)

// Contexts lists every context in display order
var Contexts = []Context{
	ContextGlobal,
	ContextCompose,
	ContextResults,
	ContextTextInput,
	ContextHistory,
	ContextStats,
	ContextHelp,
	ContextConfirm,
}

const (
	// Global actions
	ActionQuit      Action = "quit"       // Quit application
	ActionQuitForce Action = "quit_force" // Force quit (ctrl+c)

	// Analysis
	ActionSubmit        Action = "submit"         // Send the text or PDF for analysis
	ActionToggleMode    Action = "toggle_mode"    // Switch plagiarism / doppelganger
	ActionCancelRequest Action = "cancel_request" // Abort the running analysis
	ActionOpenFile      Action = "open_file"      // Prompt for a PDF path
	ActionClearFile     Action = "clear_file"     // Drop the selected PDF
	ActionSwitchFocus   Action = "switch_focus"   // Text area <-> result panel

	// Result panel
	ActionCopyResult   Action = "copy_result"   // Copy the rendered result
	ActionNavigateUp   Action = "navigate_up"   // Move up one line or item
	ActionNavigateDown Action = "navigate_down" // Move down one line or item
	ActionPageUp       Action = "page_up"       // Move up one page
	ActionPageDown     Action = "page_down"     // Move down one page
	ActionGoToTop      Action = "go_to_top"     // Go to top
	ActionGoToBottom   Action = "go_to_bottom"  // Go to bottom
	ActionOpenHistory  Action = "open_history"  // Open the history browser
	ActionOpenStats    Action = "open_stats"    // Open statistics
	ActionOpenHelp     Action = "open_help"     // Open the key reference
	ActionCloseModal   Action = "close_modal"   // Close the current overlay

	// Text input
	ActionTextSubmit Action = "text_submit" // Confirm input
	ActionTextCancel Action = "text_cancel" // Abandon input

	// History browser
	ActionHistoryReplay Action = "history_replay" // Show the selected entry again
	ActionHistoryDelete Action = "history_delete" // Delete the selected entry
	ActionHistoryClear  Action = "history_clear"  // Delete every entry
	ActionHistorySearch Action = "history_search" // Fuzzy search entries

	// Statistics
	ActionStatsRefresh Action = "stats_refresh" // Reload statistics
	ActionStatsClear   Action = "stats_clear"   // Delete recorded statistics

	// Confirmation
	ActionConfirmYes Action = "confirm_yes"
	ActionConfirmNo  Action = "confirm_no"
)

// Describe returns a short human-readable label for the help screen
func Describe(a Action) string {
	switch a {
	case ActionQuit:
		return "quit"
	case ActionQuitForce:
		return "quit immediately"
	case ActionSubmit:
		return "analyze"
	case ActionToggleMode:
		return "switch mode"
	case ActionCancelRequest:
		return "cancel running analysis"
	case ActionOpenFile:
		return "select a PDF"
	case ActionClearFile:
		return "clear selected PDF"
	case ActionSwitchFocus:
		return "switch focus"
	case ActionCopyResult:
		return "copy result"
	case ActionNavigateUp:
		return "up"
	case ActionNavigateDown:
		return "down"
	case ActionPageUp:
		return "page up"
	case ActionPageDown:
		return "page down"
	case ActionGoToTop:
		return "top"
	case ActionGoToBottom:
		return "bottom"
	case ActionOpenHistory:
		return "history"
	case ActionOpenStats:
		return "statistics"
	case ActionOpenHelp:
		return "help"
	case ActionCloseModal:
		return "close"
	case ActionTextSubmit:
		return "confirm"
	case ActionTextCancel:
		return "cancel"
	case ActionHistoryReplay:
		return "show entry"
	case ActionHistoryDelete:
		return "delete entry"
	case ActionHistoryClear:
		return "clear history"
	case ActionHistorySearch:
		return "search"
	case ActionStatsRefresh:
		return "refresh"
	case ActionStatsClear:
		return "clear statistics"
	case ActionConfirmYes:
		return "yes"
	case ActionConfirmNo:
		return "no"
	default:
		return string(a)
	}
}
