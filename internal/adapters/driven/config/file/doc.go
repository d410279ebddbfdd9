// Package file provides the TOML-backed configuration store.
//
// Keys use dot notation. On disk they are written as nested tables, so
// "llm.model" becomes:
//
//	[llm]
//	model = "gpt-4o-mini"
package file
