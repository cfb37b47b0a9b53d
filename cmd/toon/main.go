// Command toon converts between JSON, JWCC, YAML and TOON, reports the
// token savings of TOON, and serves the codec as MCP tools.
package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}
