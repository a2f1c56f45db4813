package apihttp

import "errors"

var errNoDatabase = errors.New("apihttp: no database configured")
