// Command silica-ports prints the port-name table of a handshake circuit
// description, for netlist debugging and waveform labeling. With -watch it
// keeps running and re-prints the table whenever the description changes.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/silica-hls/silica/internal/circuitdesc"
	"github.com/silica-hls/silica/internal/portdump"
)

var version = "0.1.0"

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		watch       = flag.Bool("watch", false, "watch the description file and re-print on change")
		constraint  = flag.String("format-constraint", circuitdesc.DefaultFormatConstraint,
			"accepted description format versions (semver range)")
	)
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("silica-ports: ")

	if *showVersion {
		fmt.Printf("silica-ports v%s\n", version)
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: silica-ports [flags] <circuit.yaml>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := args[0]

	if err := dump(path, *constraint); err != nil {
		if !*watch {
			log.Fatal(err)
		}
		log.Print(err)
	}
	if !*watch {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("create watcher: %v", err)
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		log.Fatalf("watch %s: %v", path, err)
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Editors often replace the file instead of writing in place.
			if ev.Op&fsnotify.Create != 0 {
				_ = watcher.Add(path)
			}
			if err := dump(path, *constraint); err != nil {
				log.Print(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Print(err)
		}
	}
}

func dump(path, constraint string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	f, err := circuitdesc.ParseWithConstraint(data, constraint)
	if err != nil {
		return err
	}
	fn, err := f.Build()
	if err != nil {
		return err
	}
	fmt.Print(portdump.Render(fn))
	return nil
}
