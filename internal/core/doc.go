// Package core is the service layer between transports and the scene
// parser.
//
// The web handlers parse through [Service]. The CLI shares its streaming
// wrapper and error mapping, so size limits, BOM handling and error codes
// match between the two.
//
// # Parsing
//
// [Service.ParseScene] takes a [SceneUpload], waits for a slot in the
// [ParseLimiter], wraps the body with [WrapForStreaming] and hands it to
// scene.ParseContext under the configured parse timeout. Every attempt that
// reaches the parser is written to the [HistoryStore], failures included.
//
//	svc := core.NewService(cfg, nil, logger)
//	res, err := svc.ParseScene(ctx, core.SceneUpload{Filename: "show.scn", Body: f})
//	if err != nil {
//	    msg := core.MapError(err) // msg.Code == "SCN001" for a malformed line
//	}
//	inputs, _ := res.Scene.ChannelListForType("in")
//
// # History
//
// [MemoryHistory] keeps a bounded ring in process. The Postgres store in
// internal/store implements the same interface when DATABASE_URL is set.
// [Service.StartHistoryPruner] drops entries older than HISTORY_RETENTION
// from any store that implements [HistoryPruner].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - SCN001-SCN004: scene content (malformed, unreadable, bank, type)
//   - FILE001-FILE005: upload body (size, missing, empty)
//   - UPL002-UPL005: busy, cancelled, timed out
//   - RATE001, AUTH001-AUTH002, DB004: access and history store
package core
