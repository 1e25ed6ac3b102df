package model

import "errors"

var (
	// ErrEntityNotFound means a slot references an instance id absent from the file.
	ErrEntityNotFound = errors.New("model: entity not found")
	// ErrSlotOutOfRange means a slot index past the record's parameters.
	ErrSlotOutOfRange = errors.New("model: slot out of range")
	// ErrSchemaUnavailable means the record's type is not in the schema, so
	// its attributes have no names.
	ErrSchemaUnavailable = errors.New("model: schema unavailable for type")
)
