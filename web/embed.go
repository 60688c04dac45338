// Package web embeds the dashboard templates and static assets.
package web

import "embed"

//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the chart script.
//
//go:embed static/*
var StaticFS embed.FS
