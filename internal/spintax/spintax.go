// Package spintax resolves {a|b|c} alternation templates into concrete
// message strings, one random pick per group per call.
package spintax

import (
	"math/rand"
	"regexp"
	"strings"
)

// Groups are non-nested; anything between a brace pair that contains no
// closing brace. Unbalanced braces never match and pass through literally.
var group = regexp.MustCompile(`\{([^{}]+)\}`)

// Resolve replaces every {opt1|opt2|...} group in template with one option
// chosen uniformly at random. Text outside groups is untouched. Successive
// calls on the same template may yield different strings.
func Resolve(template string) string {
	return group.ReplaceAllStringFunc(template, func(m string) string {
		opts := strings.Split(m[1:len(m)-1], "|")
		return opts[rand.Intn(len(opts))]
	})
}
