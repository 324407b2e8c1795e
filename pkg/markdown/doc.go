// Package markdown implements the restricted markdown subset used by article
// bodies: headings, bold, italic, inline code, block quotes, fenced code,
// images and video links.
//
// It is not a CommonMark implementation. Inline formatting is resolved by a
// fixed sequence of single forward passes (bold, then italic, then code); a
// range replaced by one pass is never re-read by a later one, so tokens nested
// inside an already formatted range stay literal.
package markdown
