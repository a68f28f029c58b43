//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"
)

// Enabled reports whether the binary was built with profiling support.
const Enabled = true

// Modes returns the supported profiling modes. The special mode "quiet" is
// omitted from the list.
var Modes = sync.OnceValue(
	func() []string {
		m := maps.Clone(mode)
		delete(m, "quiet")

		return slices.Sorted(maps.Keys(m))
	},
)

var mode = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"clock":     profile.ClockProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"allocs":    profile.MemProfileAllocs,
	"heap":      profile.MemProfileHeap,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
	"quiet":     profile.Quiet,
}

// option appends profile settings.
type option func([]func(*profile.Profile)) []func(*profile.Profile)

func start(m, path string, quiet bool) interface{ Stop() } {
	// Path and quiet alone do not select a profile.
	if _, ok := mode[m]; !ok || m == "quiet" {
		return ignore{}
	}

	var opts []func(*profile.Profile)

	for _, apply := range []option{withMode(m), withPath(path), withQuiet(quiet)} {
		opts = apply(opts)
	}

	return profile.Start(opts...)
}

func withMode(m string) option {
	return func(opts []func(*profile.Profile)) []func(*profile.Profile) {
		if fn, ok := mode[m]; ok {
			opts = append(opts, fn)
		}

		return opts
	}
}

func withPath(p string) option {
	return func(opts []func(*profile.Profile)) []func(*profile.Profile) {
		if p != "" {
			opts = append(opts, profile.ProfilePath(p))
		}

		return opts
	}
}

func withQuiet(v bool) option {
	return func(opts []func(*profile.Profile)) []func(*profile.Profile) {
		if v {
			opts = append(opts, profile.Quiet)
		}

		return opts
	}
}
