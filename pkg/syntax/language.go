// Package syntax parses JavaScript modules with tree-sitter and exposes a
// small navigable view of the resulting concrete syntax tree.
package syntax

import (
	"sync"

	"github.com/alexaandru/go-sitter-forest/javascript"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

var (
	languageOnce sync.Once
	language     *sitter.Language
)

// Language returns the tree-sitter JavaScript grammar shared by every parser
// and query in the process.
func Language() *sitter.Language {
	languageOnce.Do(func() {
		language = sitter.NewLanguage(javascript.GetLanguage())
	})

	return language
}
