package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrorJobNotFound    = errors.New("job not found")
)
