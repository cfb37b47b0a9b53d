package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/scott-cotton/cli"
)

func toonMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	defer func() {
		if cfg.CloseOut != nil {
			cfg.CloseOut()
		}
	}()
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

// eachInput calls fn with the contents of every named file, or of in when
// there are none. The name "-" also reads in.
func eachInput(in io.Reader, args []string, fn func(name string, data []byte) error) error {
	if len(args) == 0 {
		args = []string{"-"}
	}
	for _, arg := range args {
		data, err := readInput(in, arg)
		if err != nil {
			return err
		}
		if err := fn(arg, data); err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
	}
	return nil
}

func readInput(in io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(in)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", name, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// writeLine writes text and terminates it with a newline if it lacks one.
func writeLine(w io.Writer, text []byte) error {
	if _, err := w.Write(text); err != nil {
		return err
	}
	if len(text) == 0 || text[len(text)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
