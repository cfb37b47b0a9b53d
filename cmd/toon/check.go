package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scott-cotton/cli"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/toonkit/toonmcp/toon"
)

var errRoundTrip = errors.New("round trip changed the document")

func check(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		return err
	}
	opts, err := encodeOptions(0, cfg.Delim)
	if err != nil {
		return err
	}
	failed := 0
	err = eachInput(cc.In, args, func(name string, data []byte) error {
		diff, err := roundTrip(data, opts)
		if err != nil {
			return err
		}
		if diff != "" {
			failed++
			fmt.Fprintf(cc.Out, "%s: %v\n%s", name, errRoundTrip, diff)
			return nil
		}
		fmt.Fprintf(cc.Out, "%s: ok\n", name)
		return nil
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return cli.ExitCodeErr(1)
	}
	return nil
}

// roundTrip encodes a JSON document as TOON and decodes it again. It returns
// a line diff of the pretty-printed JSON before and after, or "" when the
// two agree.
func roundTrip(data []byte, opts *toon.EncodeOptions) (string, error) {
	v, err := toon.ParseJSON(data)
	if err != nil {
		return "", err
	}
	want, err := toon.MarshalJSON(v, "  ")
	if err != nil {
		return "", err
	}
	text, err := toon.EncodeWithOptions(v, opts)
	if err != nil {
		return "", err
	}
	back, err := toon.DecodeWithOptions(text, &toon.DecodeOptions{Strict: true})
	if err != nil {
		return "", fmt.Errorf("decoding own output: %w", err)
	}
	got, err := toon.MarshalJSON(back, "  ")
	if err != nil {
		return "", err
	}
	if string(want) == string(got) {
		return "", nil
	}
	return lineDiff(string(want)+"\n", string(got)+"\n"), nil
}

func lineDiff(from, to string) string {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix = "- "
		case diffpatch.DiffInsert:
			prefix = "+ "
		}
		for line := range strings.Lines(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
