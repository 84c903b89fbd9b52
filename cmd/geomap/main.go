// Command geomap is a terminal viewer for vector datasets.
//
//	geomap [-proj EPSG:3857] [-log geomap.log] [file]
package main

import (
	"flag"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"geomap/internal/tui"
)

func main() {
	proj := flag.String("proj", "", "display projection (EPSG code, proj4 or WKT)")
	logPath := flag.String("log", "", "write logs to this file")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	// the terminal belongs to the UI
	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		log.SetOutput(f)
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	m := tui.NewWithOptions(flag.Arg(0), tui.Options{Projection: *proj, Logger: log.StandardLogger()})
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal(err)
	}
}
