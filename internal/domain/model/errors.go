package model

import "errors"

// Credential and registry errors. All of them end in a denial, never a crash.
var (
	ErrMalformedCredential = errors.New("malformed credential")
	ErrExpired             = errors.New("credential expired")
	ErrDisabled            = errors.New("credential disabled")
	ErrDuplicateCredential = errors.New("credential already exists")
	ErrUnknownCredential   = errors.New("unknown credential")
)

// Loader errors. ErrSourceUnavailable and ErrSourceMalformed abort a reload and
// leave the previous registry in place.
var (
	ErrSourceUnavailable = errors.New("code source unavailable")
	ErrSourceMalformed   = errors.New("code source malformed")
)
