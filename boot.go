package main

import (
	"os"
	"strings"

	"gophercore/kernel/kfmt"
	"gophercore/kernel/kmain"
	"gophercore/user/apps"
)

// main boots the kernel with the command line formed by the program
// arguments, e.g. "frames=2048 loglevel=debug apps=mmap_rw,get_time". The
// process exits with status 1 if the kernel fails to boot or any app exits
// with a non-zero code.
func main() {
	kfmt.SetOutputSink(os.Stderr)
	log := kfmt.Logger().Named("boot")

	cfg, err := kmain.ParseCmdLine(strings.Join(os.Args[1:], " "))
	if err != nil {
		log.Error("invalid command line", "err", err.String())
		os.Exit(1)
	}

	results, err := kmain.Kmain(cfg, apps.All())
	if err != nil {
		kfmt.Panic(err)
	}

	status := 0
	for _, res := range results {
		if res.ExitCode != 0 {
			log.Warn("app failed", "app", res.Name, "code", res.ExitCode)
			status = 1
		}
	}
	os.Exit(status)
}
