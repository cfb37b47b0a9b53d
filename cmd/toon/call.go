package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/scott-cotton/cli"
	mcp "github.com/toonkit/toonmcp"
)

const callTimeout = 30 * time.Second

func call(cfg *CallConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Call.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) > 2 {
		return fmt.Errorf("%w: call takes a tool name and at most one JSON argument object", cli.ErrUsage)
	}
	auth, err := cfg.authProvider()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	c := mcp.NewClient(cfg.URL, auth)

	if len(args) == 0 {
		return listTools(ctx, c, cc.Out)
	}
	var params map[string]any
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
			return fmt.Errorf("%w: tool arguments must be a JSON object: %w", cli.ErrUsage, err)
		}
	}
	return callTool(ctx, c, cc.Out, args[0], params)
}

func (cfg *CallConfig) authProvider() (mcp.AuthProvider, error) {
	switch {
	case cfg.Token != "" && cfg.ClientID != "":
		return nil, fmt.Errorf("%w: use either -token or -client-id, not both", cli.ErrUsage)
	case cfg.Token != "":
		return mcp.NewBearerTokenAuth(cfg.Token), nil
	case cfg.ClientID != "":
		if cfg.TokenURL == "" {
			return nil, fmt.Errorf("%w: -client-id requires -token-url", cli.ErrUsage)
		}
		return mcp.NewOAuth2Auth(cfg.ClientID, cfg.ClientSecret, cfg.TokenURL, nil, nil), nil
	}
	return nil, nil
}

func listTools(ctx context.Context, c *mcp.Client, w io.Writer) error {
	tools, err := c.ListTools(ctx)
	if err != nil {
		return err
	}
	for _, t := range tools {
		fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
	}
	return nil
}

// callTool prints the text content of the tool's response.
func callTool(ctx context.Context, c *mcp.Client, w io.Writer, name string, params map[string]any) error {
	resp, err := c.CallTool(ctx, name, params)
	if err != nil {
		return err
	}
	for _, content := range resp.Content {
		if content.Type != "text" {
			fmt.Fprintf(w, "[%s content, %s]\n", content.Type, content.MimeType)
			continue
		}
		if err := writeLine(w, []byte(content.Text)); err != nil {
			return err
		}
	}
	return nil
}
