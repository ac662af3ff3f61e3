// Package log provides tracklog's structured logging facade.
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context, backed by the standard library slog.
// Library code takes a Logger and defaults to the no-op implementation;
// binaries construct a console logger with NewLogger.
//
//	l := log.NewLogger(log.WithLevel(log.DebugLevel))
//	l = l.With(log.Str("dir", dir))
//	l.Info("collection scanned", log.Int("files", n))
package log
