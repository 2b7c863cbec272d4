package usecase

import "errors"

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = errors.New("chat use case persistence error")

// ErrPublish is logged when a persisted message could not be handed to the
// fan-out channel. Callers never see it as a failure: the message is stored
// and reachable through history.
var ErrPublish = errors.New("chat use case publish error")
