package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`  ___        _ _      _    _                      _ `, "#818cf8"},
	{` / __|_ __ _(_) |_ __| |_ | |__  ___  __ _ _ _ __| |`, "#a78bfa"},
	{` \__ \ V  V / |  _/ _| ' \| '_ \/ _ \/ _' | '_/ _' |`, "#c084fc"},
	{` |___/\_/\_/|_|\__\__|_||_|_.__/\___/\__,_|_| \__,_|`, "#f472b6"},
}

// PrintBanner writes the switchboard banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  "+version).Faint())
	fmt.Fprintln(w)
}
