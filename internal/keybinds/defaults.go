package keybinds

// NewDefaultRegistry creates a registry with all default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerComposeBindings(r)
	registerResultsBindings(r)
	registerTextInputBindings(r)
	registerHistoryBindings(r)
	registerStatsBindings(r)
	registerHelpBindings(r)
	registerConfirmBindings(r)

	return r
}

// registerGlobalBindings only uses keys that never produce text, since the
// text area may have focus
func registerGlobalBindings(r *Registry) {
	r.Register(ContextGlobal, "ctrl+c", ActionQuitForce)
	r.Register(ContextGlobal, "ctrl+s", ActionSubmit)
	r.Register(ContextGlobal, "tab", ActionToggleMode)
	r.Register(ContextGlobal, "esc", ActionCancelRequest)
	r.Register(ContextGlobal, "ctrl+o", ActionOpenFile)
	r.Register(ContextGlobal, "ctrl+x", ActionClearFile)
	r.Register(ContextGlobal, "shift+tab", ActionSwitchFocus)
	r.Register(ContextGlobal, "f1", ActionOpenHelp)
	r.Register(ContextGlobal, "f2", ActionOpenHistory)
	r.Register(ContextGlobal, "f3", ActionOpenStats)
}

func registerComposeBindings(r *Registry) {
	// everything else goes to the text area
	r.Register(ContextCompose, "ctrl+q", ActionQuit)
}

func registerNavigationBindings(r *Registry, context Context) {
	r.RegisterMultiple(context, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(context, []string{"down", "j"}, ActionNavigateDown)
	r.RegisterMultiple(context, []string{"pgup", "ctrl+u"}, ActionPageUp)
	r.RegisterMultiple(context, []string{"pgdown", "ctrl+d"}, ActionPageDown)
	r.RegisterMultiple(context, []string{"gg", "home"}, ActionGoToTop)
	r.RegisterMultiple(context, []string{"G", "end"}, ActionGoToBottom)
}

func registerResultsBindings(r *Registry) {
	registerNavigationBindings(r, ContextResults)
	r.Register(ContextResults, "q", ActionQuit)
	r.Register(ContextResults, "y", ActionCopyResult)
	r.Register(ContextResults, "H", ActionOpenHistory)
	r.Register(ContextResults, "S", ActionOpenStats)
	r.Register(ContextResults, "?", ActionOpenHelp)
	r.RegisterMultiple(ContextResults, []string{"i", "enter"}, ActionSwitchFocus)
}

func registerTextInputBindings(r *Registry) {
	r.Register(ContextTextInput, "enter", ActionTextSubmit)
	r.Register(ContextTextInput, "esc", ActionTextCancel)
}

func registerHistoryBindings(r *Registry) {
	registerNavigationBindings(r, ContextHistory)
	r.RegisterMultiple(ContextHistory, []string{"esc", "q", "H"}, ActionCloseModal)
	r.Register(ContextHistory, "enter", ActionHistoryReplay)
	r.Register(ContextHistory, "d", ActionHistoryDelete)
	r.Register(ContextHistory, "C", ActionHistoryClear)
	r.Register(ContextHistory, "/", ActionHistorySearch)
}

func registerStatsBindings(r *Registry) {
	registerNavigationBindings(r, ContextStats)
	r.RegisterMultiple(ContextStats, []string{"esc", "q", "S"}, ActionCloseModal)
	r.Register(ContextStats, "r", ActionStatsRefresh)
	r.Register(ContextStats, "C", ActionStatsClear)
}

func registerHelpBindings(r *Registry) {
	registerNavigationBindings(r, ContextHelp)
	r.RegisterMultiple(ContextHelp, []string{"esc", "q", "?"}, ActionCloseModal)
}

func registerConfirmBindings(r *Registry) {
	r.RegisterMultiple(ContextConfirm, []string{"y", "Y"}, ActionConfirmYes)
	r.RegisterMultiple(ContextConfirm, []string{"n", "N", "esc", "q"}, ActionConfirmNo)
}
