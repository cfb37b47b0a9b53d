package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"github.com/toonkit/toonmcp/estimate"
	"github.com/toonkit/toonmcp/toon"
)

type palette struct {
	name, good, bad func(format string, a ...any) string
}

var plainPalette = palette{name: fmt.Sprintf, good: fmt.Sprintf, bad: fmt.Sprintf}

func colorPalette() palette {
	return palette{
		name: color.New(color.Bold).SprintfFunc(),
		good: color.New(color.FgGreen).SprintfFunc(),
		bad:  color.New(color.FgRed).SprintfFunc(),
	}
}

// paletteFor colors output only for terminals unless force is set.
func paletteFor(w io.Writer, force bool) palette {
	if force {
		color.NoColor = false
		return colorPalette()
	}
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return plainPalette
	}
	return colorPalette()
}

func stats(cfg *StatsConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Stats.Parse(cc, args)
	if err != nil {
		return err
	}
	p := paletteFor(cc.Out, cfg.Color)
	return eachInput(cc.In, args, func(name string, data []byte) error {
		v, err := toon.ParseJSON(data)
		if err != nil {
			return err
		}
		text, err := toon.Encode(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cc.Out, statsLine(name, estimate.Compare(string(data), text), p))
		return err
	})
}

func statsLine(name string, s estimate.Savings, p palette) string {
	pct := p.good
	if s.SavedTokens < 0 {
		pct = p.bad
	}
	return fmt.Sprintf("%s: JSON %d chars %d tokens, TOON %d chars %d tokens, saved %d tokens %s",
		p.name("%s", name), s.JSONChars, s.JSONTokens, s.TOONChars, s.TOONTokens, s.SavedTokens,
		pct("(%.1f%%)", s.TokenPercent))
}
