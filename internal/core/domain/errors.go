package domain

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	ErrOverlap  = errors.New("space already booked for this time range")
)
