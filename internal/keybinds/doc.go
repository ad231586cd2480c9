/*
Package keybinds maps keys to TUI actions per context.

Contexts follow the screen that has focus: compose (the text area),
results, single-line text inputs, and the history, statistics and help
overlays. A key bound in a specific context shadows the global binding.
Global bindings stay on keys that never insert text, because the text area
receives every unbound key.

Users override bindings in ~/.twins/keybinds.json:

	{
	  "version": "1.0",
	  "bindings": {
	    "global": {"submit": "ctrl+s,ctrl+enter"},
	    "results": {"copy_result": "c"}
	  }
	}

Listing an action replaces all of its default keys in that context.
Multi-key sequences such as "gg" are matched with MatchMultiKey.
*/
package keybinds
