package core

// Logger logs messages along with optional extra args.
// Implementations accept errors, map[string]interface{} and user values as args.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
