// Package scene parses X32 scene files and resolves their signal routing.
//
// A scene file is the console's plain-text configuration snapshot: one record
// per line, fields separated by spaces, names quoted when they contain
// spaces. Only three record shapes matter for routing:
//
//	/config/routing/<BANK> <group> <group> ...   routing matrix banks
//	/<type>/<index>/config <name> <icon> <color> [source]
//	/outputs/<type>/<index> <source> <tap> <phase>
//
// Everything else in the file is ignored.
//
// # Model
//
// [Parse] returns a new, immutable [Scene] for every call. A Scene holds:
//
//   - route slots keyed "<bank>.<NN>" (e.g. "in.05", "aes50a.12")
//   - channels keyed "<type>.<index>" (input, mix and internal variants)
//   - physical outputs keyed "<type>.<NN>" (e.g. "p16.02", "out.16")
//   - a fan-out index from route key to every channel fed by it
//
// # Resolution
//
// The console numbers its internal buses with two disjoint encodings, one
// for what feeds an input channel ([RouteKeyFromSource]) and one for what
// feeds an output ([ChannelKeyFromSource]). The query methods on [Scene]
// walk these encodings through the routing banks so that callers can ask
// "which channels does AES50-A 12 feed" or "what plays out of XLR 3".
//
// Queries never return references into the model; a Scene is safe for
// concurrent use once Parse has returned.
package scene
