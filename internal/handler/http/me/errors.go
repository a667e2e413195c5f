package me

import "errors"

var errInvalidBody = errors.New("invalid request body")
