package process

import (
	"sort"
	"strings"
)

// FilterEnv returns a copy of environ with entries matching any of the given
// prefixes removed. Each prefix should include a trailing "=" to match env
// var assignments (e.g. "FIREWORKS_API_KEY=").
func FilterEnv(environ []string, excludePrefixes ...string) []string {
	result := make([]string, 0, len(environ))
	for _, e := range environ {
		filtered := false
		for _, prefix := range excludePrefixes {
			if strings.HasPrefix(e, prefix) {
				filtered = true
				break
			}
		}
		if !filtered {
			result = append(result, e)
		}
	}
	return result
}

// MergeEnv returns environ with every key in set replaced by its value.
// Keys are appended in sorted order so the result is deterministic.
func MergeEnv(environ []string, set map[string]string) []string {
	if len(set) == 0 {
		return append([]string(nil), environ...)
	}
	keys := make([]string, 0, len(set))
	prefixes := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
		prefixes = append(prefixes, k+"=")
	}
	sort.Strings(keys)

	env := FilterEnv(environ, prefixes...)
	for _, k := range keys {
		env = append(env, k+"="+set[k])
	}
	return env
}
