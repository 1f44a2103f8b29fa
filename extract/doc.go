// Package extract turns source files into text.
//
// Three kinds are supported, selected by file extension:
//   - PDF: one Page per page with text, whitespace-normalized and capped
//   - JSON: a top-level array; Q/A objects and generic items
//   - Text: any other file, read whole as UTF-8
//
// Mux dispatches to the right extractor; callers treat any error as
// "skip this file".
package extract
