/*
Package tui implements the interactive twins screen.

# Architecture

The TUI follows Bubble Tea's Model-Update-View pattern:
  - model.go: Model, messages and the update loop
  - keys.go: keybinding routing per screen
  - actions.go: user actions (submit, cancel, file selection, history)
  - render.go: layout and overlays

The Model never decides analysis state on its own. Text edits, mode
switches and file selection are forwarded to a lifecycle.Controller, which
also rejects them while a request is running. Submission calls Begin, runs
the client in a tea.Cmd, and hands the outcome back through Complete. The
result panel renders results.Interpret of the controller state.

# Screens

  - Main: mode selector, text area, PDF line, submit control, result panel
  - File prompt: single-line path input with recent-file completion
  - History: recorded analyses with fuzzy search and replay
  - Statistics: per-mode call counts, latency and outcomes
  - Help: active keybindings

# Threading Model

Only the client call leaves the event loop. Its cancel function lives in
RequestState so esc can abort it from the loop.
*/
package tui
