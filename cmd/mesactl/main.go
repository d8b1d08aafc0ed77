package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/matheus3301/mesa/internal/config"
	"github.com/matheus3301/mesa/internal/session"
)

func main() {
	addrFlag := flag.String("addr", "", "daemon HTTP address (overrides config)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	addr := *addrFlag
	if addr == "" {
		cfg, err := config.Load(session.ConfigPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		addr = cfg.Listen
	}

	c := &client{base: "http://" + addr}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "status":
		cmdStatus(ctx, c, *jsonFlag)
	case "products":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: mesactl products <list|add|update|delete>")
			os.Exit(1)
		}
		cmdProducts(ctx, c, args[1:], *jsonFlag)
	case "tables":
		cmdTables(ctx, c, args[1:], *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: mesactl [--addr <host:port>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                  Show daemon status")
	fmt.Fprintln(os.Stderr, "  products list           List menu products")
	fmt.Fprintln(os.Stderr, "  products add            Add a product (JSON on stdin)")
	fmt.Fprintln(os.Stderr, "  products update <id>    Update a product (JSON on stdin)")
	fmt.Fprintln(os.Stderr, "  products delete <id>    Delete a product")
	fmt.Fprintln(os.Stderr, "  tables                  Show per-table order overview")
	fmt.Fprintln(os.Stderr, "  tables ready <table>    Mark a table's pending orders ready")
	fmt.Fprintln(os.Stderr, "  tables clear <table>    Mark a table's orders completed")
}

// client is a thin wrapper over the daemon's admin HTTP API.
type client struct {
	base string
	http http.Client
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (c *client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot reach daemon at %s: %w", c.base, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("bad response (%s): %w", resp.Status, err)
	}
	if !env.OK {
		return nil, fmt.Errorf("%s", env.Error)
	}
	return env.Data, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(raw json.RawMessage) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(buf.String())
}

func readStdinJSON() (map[string]any, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid product JSON: %w", err)
	}
	return m, nil
}

func cmdStatus(ctx context.Context, c *client, jsonOut bool) {
	raw, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(raw)
		return
	}
	var st struct {
		Session  string `json:"session"`
		Status   string `json:"status"`
		UptimeMs int64  `json:"uptimeMs"`
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		fatal(err)
	}
	fmt.Printf("Session: %s\n", st.Session)
	fmt.Printf("Status:  %s\n", st.Status)
	fmt.Printf("Uptime:  %dms\n", st.UptimeMs)
}

func cmdProducts(ctx context.Context, c *client, args []string, jsonOut bool) {
	switch args[0] {
	case "list":
		raw, err := c.do(ctx, http.MethodGet, "/v1/admin/products", nil)
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(raw)
			return
		}
		var grouped map[string][]struct {
			ID    string  `json:"id"`
			Name  string  `json:"name"`
			Price float64 `json:"price"`
		}
		if err := json.Unmarshal(raw, &grouped); err != nil {
			fatal(err)
		}
		for category, products := range grouped {
			fmt.Printf("%s:\n", category)
			for _, p := range products {
				fmt.Printf("  %-24s $%.2f  (%s)\n", p.Name, p.Price, p.ID)
			}
		}
	case "add":
		body, err := readStdinJSON()
		if err != nil {
			fatal(err)
		}
		raw, err := c.do(ctx, http.MethodPost, "/v1/admin/products", body)
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(raw)
			return
		}
		var created struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(raw, &created)
		fmt.Printf("Created product %s\n", created.ID)
	case "update":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: mesactl products update <id>")
			os.Exit(1)
		}
		body, err := readStdinJSON()
		if err != nil {
			fatal(err)
		}
		if _, err := c.do(ctx, http.MethodPut, "/v1/admin/products/"+args[1], body); err != nil {
			fatal(err)
		}
		fmt.Printf("Updated product %s\n", args[1])
	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: mesactl products delete <id>")
			os.Exit(1)
		}
		if _, err := c.do(ctx, http.MethodDelete, "/v1/admin/products/"+args[1], nil); err != nil {
			fatal(err)
		}
		fmt.Printf("Deleted product %s\n", args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown products subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func cmdTables(ctx context.Context, c *client, args []string, jsonOut bool) {
	if len(args) == 0 {
		raw, err := c.do(ctx, http.MethodGet, "/v1/admin/tables", nil)
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(raw)
			return
		}
		var tables []struct {
			Table  string  `json:"tableNumber"`
			Orders []any   `json:"orders"`
			Total  float64 `json:"total"`
		}
		if err := json.Unmarshal(raw, &tables); err != nil {
			fatal(err)
		}
		if len(tables) == 0 {
			fmt.Println("No open orders.")
			return
		}
		for _, t := range tables {
			fmt.Printf("%-12s %2d orders  $%.2f\n", t.Table, len(t.Orders), t.Total)
		}
		return
	}

	switch args[0] {
	case "ready", "clear":
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "usage: mesactl tables %s <table>\n", args[0])
			os.Exit(1)
		}
		raw, err := c.do(ctx, http.MethodPost, "/v1/admin/tables/"+args[1]+"/"+args[0], nil)
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(raw)
			return
		}
		var res struct {
			Updated int `json:"updated"`
		}
		_ = json.Unmarshal(raw, &res)
		fmt.Printf("Updated %d orders on %s\n", res.Updated, args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown tables subcommand: %s\n", args[0])
		os.Exit(1)
	}
}
