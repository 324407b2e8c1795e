// Package gloss is the composition root of the gloss annotation engine.
//
// Gloss lets a reader highlight passages of a long-form article and attach
// private notes to them. Annotations are content-addressed: each one names a
// block of the article and a rune range of that block's text, so it survives
// re-rendering and is stored per article as a single JSON record.
//
// The engine is split the hexagonal way. pkg/core holds the domain types and
// the ports (core.KeyValue for durable storage, core.ArticleProvider for
// article sources). Adapters live under pkg/adapters: an in-memory map, a
// directory of JSON files with fsnotify-driven change events, and SQLite.
//
// Usage:
//
//	eng, err := gloss.New(ctx, "./.gloss/annotations", gloss.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer eng.Close()
//
//	blocks := gloss.ParseBlocks(body)
//	session := eng.Open(ctx, "on-reading", blocks)
//	view := session.View(ctx)
//
// Rendering is pure: reader.Render turns blocks plus State into a View whose
// handlers call back into the caller. Session is the stock owner of that
// state; HTMLWriter serialises a View.
package gloss
