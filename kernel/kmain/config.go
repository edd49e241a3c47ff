package kmain

import (
	"strconv"
	"strings"

	"gophercore/kernel"
	"gophercore/kernel/kfmt"
)

const (
	defaultFrames         = 4096
	defaultLogLevel       = "info"
	defaultUserStackPages = 2
)

var (
	errBadFrames    = &kernel.Error{Module: "kmain", Message: "frames must be a positive frame count"}
	errBadLogLevel  = &kernel.Error{Module: "kmain", Message: "unknown log level"}
	errBadUserStack = &kernel.Error{Module: "kmain", Message: "userstack must be a positive page count"}
)

// Config holds the boot options of the kernel.
type Config struct {
	// Frames is the number of physical frames in the arena.
	Frames uint32

	// LogLevel is the level of the kernel logger.
	LogLevel string

	// Apps lists the apps to load. An empty list loads every app.
	Apps []string

	// UserStackPages is the size of each user stack in pages.
	UserStackPages int
}

// DefaultConfig returns the configuration used for options missing from the
// command line.
func DefaultConfig() Config {
	return Config{
		Frames:         defaultFrames,
		LogLevel:       defaultLogLevel,
		UserStackPages: defaultUserStackPages,
	}
}

// ParseCmdLine parses a kernel command line made of whitespace-separated
// key=value pairs. A bare key is treated as key=key and unknown keys are
// ignored.
func ParseCmdLine(cmdLine string) (Config, *kernel.Error) {
	cfg := DefaultConfig()

	for _, pair := range strings.Fields(cmdLine) {
		var k, v string
		kv := strings.Split(pair, "=")
		switch len(kv) {
		case 2: // foo=bar
			k, v = kv[0], kv[1]
		case 1: // nofoo
			k, v = kv[0], kv[0]
		default:
			continue
		}

		switch k {
		case "frames":
			frames, err := strconv.ParseUint(v, 10, 32)
			if err != nil || frames == 0 {
				return cfg, errBadFrames
			}
			cfg.Frames = uint32(frames)
		case "loglevel":
			if !validLogLevel(v) {
				return cfg, errBadLogLevel
			}
			cfg.LogLevel = v
		case "apps":
			cfg.Apps = nil
			for _, name := range strings.Split(v, ",") {
				if name != "" {
					cfg.Apps = append(cfg.Apps, name)
				}
			}
		case "userstack":
			pages, err := strconv.Atoi(v)
			if err != nil || pages <= 0 {
				return cfg, errBadUserStack
			}
			cfg.UserStackPages = pages
		}
	}

	return cfg, nil
}

func validLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "error", "off":
		return true
	}
	return false
}

// applyLogLevel sets the level of the kernel logger.
func applyLogLevel(level string) *kernel.Error {
	if !kfmt.SetLevel(level) {
		return errBadLogLevel
	}
	return nil
}
