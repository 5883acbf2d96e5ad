package service

import "errors"

var ErrSessionNotFound = errors.New("chat session not found")
