package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type client struct {
	BaseURL   string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) get(path string) (int, []byte, error) {
	resp, err := c.HTTP.Get(strings.TrimRight(c.BaseURL, "/") + path)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func printOut(w io.Writer, format string, v any) {
	if format == "json" {
		p, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintln(w, string(p))
		return
	}
	switch t := v.(type) {
	case string:
		fmt.Fprintln(w, t)
	case []byte:
		fmt.Fprintln(w, string(t))
	default:
		fmt.Fprintf(w, "%+v\n", t)
	}
}
