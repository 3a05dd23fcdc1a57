// Package logx wraps zerolog behind a small Logger/Field API so packages do
// not depend on zerolog directly, and so watch mode can re-apply logging
// config (level, sinks) without swapping out handed-out loggers.
package logx
