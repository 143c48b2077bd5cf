// Command lcdctl sends commands to a running peach-lcd server.
//
// Usage:
//
//	lcdctl [flags] <command> [args]
//
// Commands:
//
//	write <position> <text>  Write text starting at position (0-40)
//	clear                    Blank the display
//	reset                    Re-initialize the display
//	shell                    Interactive prompt accepting the commands above
//
// Flags:
//
//	-url string         Server URL (default "http://127.0.0.1:3030")
//	-timeout duration   Per call timeout (default 5s)
//	-version            Show version information
//
// Examples:
//
//	lcdctl write 0 "Hello"
//	lcdctl -url http://peach.local:3030 clear
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/chzyer/readline"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/peachcloud/hd44780/lcdrpc"
)

// Version information - set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "dev"
	GitCommit = "unknown"
)

var (
	serverURL   = flag.String("url", "http://127.0.0.1:3030", "Server URL")
	timeout     = flag.Duration("timeout", 5*time.Second, "Per call timeout")
	showVersion = flag.Bool("version", false, "Show version information")
)

var errUsage = errors.New("usage: write <position> <text> | clear | reset")

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("lcdctl %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		return 0
	}

	client := lcdrpc.NewClient(*serverURL, &http.Client{Timeout: *timeout})
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, errUsage)
		return 2
	}

	if args[0] == "shell" {
		if err := shell(client); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := execute(context.Background(), client, os.Stdout, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

// execute runs one command and prints the server reply to w.
func execute(ctx context.Context, c *lcdrpc.Client, w io.Writer, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	var (
		res string
		err error
	)
	switch strings.ToLower(args[0]) {
	case "write", "w":
		if len(args) < 3 {
			return errUsage
		}
		pos, perr := strconv.Atoi(args[1])
		if perr != nil {
			return fmt.Errorf("position %q: %w", args[1], errUsage)
		}
		res, err = c.Write(ctx, pos, strings.Join(args[2:], " "))
	case "clear", "c":
		res, err = c.Clear(ctx)
	case "reset", "r":
		res, err = c.Reset(ctx)
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(w, res)
	return nil
}

// describe formats server errors with their code and data.
func describe(err error) string {
	var je *json2.Error
	if errors.As(err, &je) {
		if je.Data != nil {
			return fmt.Sprintf("%s (%d): %v", je.Message, je.Code, je.Data)
		}
		return fmt.Sprintf("%s (%d)", je.Message, je.Code)
	}
	return err.Error()
}

// splitLine splits a shell line into words. The text of a write is the rest
// of the line after the position and a single separator, kept as typed.
func splitLine(line string) []string {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	cmd, rest := cutSpace(line)
	switch strings.ToLower(cmd) {
	case "":
		return nil
	case "write", "w":
	default:
		return strings.Fields(line)
	}
	pos, text := cutSpace(strings.TrimLeftFunc(rest, unicode.IsSpace))
	switch {
	case pos == "":
		return []string{cmd}
	case text == "":
		return []string{cmd, pos}
	}
	return []string{cmd, pos, text}
}

// cutSpace splits s around its first white space character.
func cutSpace(s string) (before, after string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	_, n := utf8.DecodeRuneInString(s[i:])
	return s[:i], s[i+n:]
}

func shell(c *lcdrpc.Client) error {
	var history string
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".lcdctl_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lcd> ",
		HistoryFile:     history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}

		parts := splitLine(line)
		if len(parts) == 0 {
			continue
		}
		switch strings.ToLower(parts[0]) {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			fmt.Fprintln(rl.Stdout(), errUsage)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		if err := execute(ctx, c, rl.Stdout(), parts); err != nil {
			fmt.Fprintf(rl.Stdout(), "Error: %s\n", describe(err))
		}
		cancel()
	}
}
