// Package logtail reads the end of the dbspctl log file and renders its JSON
// records as compact one-line summaries.
//
// Read keeps a ring buffer of maxLines entries, so memory stays proportional
// to the requested tail rather than the file size. A missing file yields no
// lines and no error.
//
// Parse understands the records written by slog's JSON handler (time, level,
// msg plus attributes). Anything else, such as a stray panic trace, is kept
// verbatim and Format returns it unchanged.
package logtail
