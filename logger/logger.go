package logger

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Log is a single log record marshaled and written to the io.Writers of the
// helper implementing the Logger abstraction.
type Log struct {
	ID        primitive.ObjectID `json:"_id"`
	CreatedAt time.Time          `json:"created_at"`
	Level     string             `json:"level"`
	Msg       string             `json:"msg"`
}

// Logger provides logging methods for debug, info, warning, error and fatal.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)
}
