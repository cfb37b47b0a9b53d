package main

import (
	"fmt"
	"os"

	"github.com/scott-cotton/cli"
	"github.com/toonkit/toonmcp/convert"
)

type MainConfig struct {
	Out      string
	CloseOut func() error

	Main *cli.Command
}

func (cfg *MainConfig) outOpt(cc *cli.Context, a string) (any, error) {
	cfg.Out = a
	if a == "-" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.Out, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	cc.Out = f
	cfg.CloseOut = f.Close
	return nil, nil
}

// fmtFunc parses a format option into *fp, rejecting formats not in allowed.
func fmtFunc(fp *convert.Format, allowed ...convert.Format) cli.FuncOpt {
	return cli.FuncOpt(func(_ *cli.Context, v string) (any, error) {
		f, err := convert.ParseFormat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		for _, a := range allowed {
			if f == a {
				*fp = f
				return f, nil
			}
		}
		return nil, fmt.Errorf("%w: format %v not supported here", cli.ErrUsage, f)
	})
}

type EncodeConfig struct {
	*MainConfig

	Indent int    `cli:"name=indent desc='spaces per indentation level, at most 16' default=2"`
	Delim  string `cli:"name=delim desc='array delimiter: comma, tab, pipe or space' default=comma"`
	Stats  bool   `cli:"name=stats desc='report token savings on stderr'"`

	InFormat convert.Format

	Encode *cli.Command
}

type DecodeConfig struct {
	*MainConfig

	Indent  int  `cli:"name=indent desc='spaces per indentation level, 0 detects it'"`
	Lenient bool `cli:"name=lenient desc='accept declared array lengths that do not match'"`
	Compact bool `cli:"name=compact desc='write JSON on one line'"`

	OutFormat convert.Format

	Decode *cli.Command
}

type CheckConfig struct {
	*MainConfig

	Delim string `cli:"name=delim desc='array delimiter used for the round trip' default=comma"`

	Check *cli.Command
}

type StatsConfig struct {
	*MainConfig

	Color bool `cli:"name=color desc='force colored output'"`

	Stats *cli.Command
}

type ServeConfig struct {
	*MainConfig

	Addr  string `cli:"name=addr desc='HTTP listen address' default=localhost:8080"`
	Rate  int    `cli:"name=rate desc='tool calls per second, 0 for no limit'"`
	Burst int    `cli:"name=burst desc='tool call burst size' default=10"`
	Gops  bool   `cli:"name=gops desc='start the gops diagnostics agent'"`

	Serve *cli.Command
}

type CallConfig struct {
	*MainConfig

	URL          string `cli:"name=url desc='MCP server URL' default=http://localhost:8080"`
	Token        string `cli:"name=token desc='bearer token'"`
	ClientID     string `cli:"name=client-id desc='OAuth2 client id'"`
	ClientSecret string `cli:"name=client-secret desc='OAuth2 client secret'"`
	TokenURL     string `cli:"name=token-url desc='OAuth2 token endpoint'"`

	Call *cli.Command
}
