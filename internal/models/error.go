package models

import "errors"

var (
	// ErrSiteNotFound is returned when a URL is not in the website store.
	ErrSiteNotFound = errors.New("website not found")
	// ErrSiteExists is returned when adding a URL that is already monitored.
	ErrSiteExists = errors.New("website already monitored")
)
