package core

import "log"

// Logger is implemented by services/logger. Implementations may inspect args
// for a user value to attribute the event to the acting user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// StdLogger adapts the standard library logger to Logger. Used in DEV/TEST.
type StdLogger struct {
	Std *log.Logger
}

var _ Logger = (*StdLogger)(nil)

func (l StdLogger) print(level, msg string, args []interface{}) {
	l.Std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.Std.Printf("%+v", arg)
	}
}

func (l StdLogger) Debug(msg string, args ...interface{}) { l.print("DEBUG", msg, args) }
func (l StdLogger) Info(msg string, args ...interface{})  { l.print("INFO", msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { l.print("WARN", msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { l.print("ERROR", msg, args) }

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	l.print("FATAL", msg, args)
	l.Std.Fatal(msg)
}
