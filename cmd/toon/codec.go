package main

import (
	"fmt"
	"os"

	"github.com/scott-cotton/cli"
	"github.com/toonkit/toonmcp/convert"
	"github.com/toonkit/toonmcp/estimate"
	"github.com/toonkit/toonmcp/toon"
)

func encode(cfg *EncodeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Encode.Parse(cc, args)
	if err != nil {
		return err
	}
	opts, err := encodeOptions(cfg.Indent, cfg.Delim)
	if err != nil {
		return err
	}
	return eachInput(cc.In, args, func(name string, data []byte) error {
		text, savings, err := encodeDoc(data, cfg.InFormat, opts)
		if err != nil {
			return err
		}
		if cfg.Stats {
			fmt.Fprintln(os.Stderr, statsLine(name, savings, plainPalette))
		}
		return writeLine(cc.Out, []byte(text))
	})
}

func encodeOptions(indent int, delim string) (*toon.EncodeOptions, error) {
	if indent < 0 || indent > toon.MaxIndent {
		return nil, fmt.Errorf("%w: -indent must be between 0 and %d", cli.ErrUsage, toon.MaxIndent)
	}
	d, err := toon.ParseDelimiter(delim)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	return &toon.EncodeOptions{Indent: indent, Delimiter: d}, nil
}

// encodeDoc renders data, read in format f, as TOON and measures it
// against the input text.
func encodeDoc(data []byte, f convert.Format, opts *toon.EncodeOptions) (string, estimate.Savings, error) {
	v, err := convert.Read(data, f, nil)
	if err != nil {
		return "", estimate.Savings{}, err
	}
	text, err := toon.EncodeWithOptions(v, opts)
	if err != nil {
		return "", estimate.Savings{}, err
	}
	return text, estimate.Compare(string(data), text), nil
}

func decode(cfg *DecodeConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Decode.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Indent < 0 {
		return fmt.Errorf("%w: -indent must not be negative", cli.ErrUsage)
	}
	dopts := &toon.DecodeOptions{Indent: cfg.Indent, Strict: !cfg.Lenient}
	wopts := &convert.WriteOptions{}
	if !cfg.Compact {
		wopts.JSONIndent = "  "
	}
	return eachInput(cc.In, args, func(name string, data []byte) error {
		out, err := decodeDoc(data, cfg.OutFormat, dopts, wopts)
		if err != nil {
			return err
		}
		return writeLine(cc.Out, out)
	})
}

func decodeDoc(data []byte, f convert.Format, dopts *toon.DecodeOptions, wopts *convert.WriteOptions) ([]byte, error) {
	v, err := convert.Read(data, convert.FormatTOON, dopts)
	if err != nil {
		return nil, err
	}
	return convert.Write(v, f, wopts)
}
