package tui

import "time"

// Layout constants
const (
	ModalWidthMargin  = 6 // m.width - 6 for overlays
	ModalHeightMargin = 4 // m.height - 4 for overlays
	BoxBorderWidth    = 2 // width and height consumed by a rounded border
	BoxPadding        = 2 // horizontal padding inside boxes

	// Main screen rows outside the editor and result boxes: header, mode
	// selector, mode hint, file line, action line, status bar
	MainChromeLines = 6

	MinEditorLines = 3
	MaxEditorLines = 12

	HistoryListWidthRatio = 0.45 // list pane share of the history overlay
)

const (
	// historyLoadLimit bounds the entries loaded into the history overlay
	historyLoadLimit = 200

	// statusTimeout clears informational messages
	statusTimeout = 4 * time.Second

	// statusMaxLen truncates footer messages
	statusMaxLen = 100
)
