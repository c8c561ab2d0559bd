package chat

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeChannel returns the canonical form of a channel name: no leading
// '#', no surrounding space, case folded.
func NormalizeChannel(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "#")
	return cases.Fold().String(name)
}
