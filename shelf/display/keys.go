package display

// Key names shared by every surface. Surfaces translate their native key
// events into these names and look them up with CommandForKey.
var defaultKeyMap = map[string]Command{
	"p":      {Kind: TogglePause},
	"Space":  {Kind: TogglePause},
	"f":      {Kind: Screenshot},
	"1":      {Kind: SaveState, Slot: 1},
	"2":      {Kind: SaveState, Slot: 2},
	"3":      {Kind: SaveState, Slot: 3},
	"F1":     {Kind: LoadState, Slot: 1},
	"F2":     {Kind: LoadState, Slot: 2},
	"F3":     {Kind: LoadState, Slot: 3},
	"Escape": {Kind: Quit},
	"q":      {Kind: Quit},
}

// CommandForKey returns the command bound to a key name.
func CommandForKey(keyName string) (Command, bool) {
	cmd, ok := defaultKeyMap[keyName]
	return cmd, ok
}
