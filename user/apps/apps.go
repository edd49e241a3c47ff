// Package apps contains the user programs bundled with the kernel.
package apps

import (
	"sort"

	"gophercore/user"
)

// mmapBase is the start of the address range the apps use for mmap.
const mmapBase = 0x1000_0000

var registry = map[string]user.App{}

func register(name string, main func(env *user.Env) int32) {
	registry[name] = user.App{Name: name, Main: main}
}

// All returns every bundled app sorted by name.
func All() []user.App {
	out := make([]user.App, 0, len(registry))
	for _, app := range registry {
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// expect logs a failed check and returns ok.
func expect(env *user.Env, ok bool, what string, args ...interface{}) bool {
	if !ok {
		env.Log().Error("check failed: "+what, args...)
	}
	return ok
}
