package bot

import "github.com/feltcraft/tabled/internal/game"

// Caller checks when it can and calls when it must. It never raises, which
// makes it the baseline opponent for engine tests: every hand it plays
// reaches showdown unless someone else ends it.
type Caller struct{}

func (*Caller) Name() string { return "caller" }

func (*Caller) Decide(p Prompt) Decision {
	return pick(p.Allowed, game.Check, game.Call, game.Fold)
}

// Folder folds to any bet and checks otherwise. Useful for draining a table
// deterministically.
type Folder struct{}

func (*Folder) Name() string { return "folder" }

func (*Folder) Decide(p Prompt) Decision {
	return pick(p.Allowed, game.Check, game.Fold)
}
