package web

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var content embed.FS

// GetStaticFS returns the embedded browser client
func GetStaticFS() fs.FS {
	staticFS, _ := fs.Sub(content, "static")
	return staticFS
}
