package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Pangea banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" ____                              ", "#34d399"},
		{"|  _ \\ __ _ _ __   __ _  ___  __ _ ", "#2dd4bf"},
		{"| |_) / _` | '_ \\ / _` |/ _ \\/ _` |", "#22d3ee"},
		{"|  __/ (_| | | | | (_| |  __/ (_| |", "#38bdf8"},
		{"|_|   \\__,_|_| |_|\\__, |\\___|\\__,_|", "#60a5fa"},
		{"                  |___/            ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
