package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdb/internal/cli/config"
	"github.com/leapstack-labs/leapdb/pkg/db"
	"github.com/leapstack-labs/leapdb/pkg/query"
)

const (
	replPrompt         = "leapdb> "
	replContinuePrompt = "   ...> "
)

// replSession is the state of one interactive session.
type replSession struct {
	cmd    *cobra.Command
	cmdCtx *CommandContext
	conn   *db.Connection
	format string
	buf    strings.Builder
}

func newREPLSession(cmd *cobra.Command, cmdCtx *CommandContext) (*replSession, error) {
	conn, err := cmdCtx.Connection(cmd, "")
	if err != nil {
		return nil, err
	}
	return &replSession{
		cmd:    cmd,
		cmdCtx: cmdCtx,
		conn:   conn,
		format: cmdCtx.Cfg.OutputFormat,
	}, nil
}

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext) error {
	s, err := newREPLSession(cmd, cmdCtx)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyPath(cmdCtx.Cfg.HistoryFile),
		AutoComplete:    s.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Print welcome message
	_, _ = fmt.Fprintf(cmdCtx.Out, "leapdb REPL (connection: %s)\n", s.conn.Name())
	_, _ = fmt.Fprintln(cmdCtx.Out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmdCtx.Out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		quit := s.handleLine(line)
		if quit {
			break
		}
		if s.buf.Len() > 0 {
			rl.SetPrompt(replContinuePrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}

	return nil
}

// handleLine processes one input line and reports whether the session
// should end. SQL accumulates until a line ends with a semicolon.
func (s *replSession) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	// Handle dot-commands
	if s.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return s.handleDotCommand(line)
	}

	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString(" ")
		return false
	}

	input := s.buf.String()
	s.buf.Reset()
	for _, stmt := range splitStatements(input) {
		if err := executeAndRender(s.cmd, s.conn, stmt, s.format, s.cmdCtx.Out); err != nil {
			_, _ = fmt.Fprintf(s.cmdCtx.ErrOut, "Error: %v\n", err)
			break
		}
	}
	_, _ = fmt.Fprintln(s.cmdCtx.Out)
	return false
}

func (s *replSession) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	out, errOut := s.cmdCtx.Out, s.cmdCtx.ErrOut

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(out)

	case ".tables":
		if err := s.listTables(); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}

	case ".connections":
		for _, name := range s.cmdCtx.Registry.Names() {
			marker := " "
			if name == s.conn.Name() {
				marker = "*"
			}
			_, _ = fmt.Fprintf(out, "%s %s\n", marker, name)
		}

	case ".use":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errOut, "Usage: .use <connection>")
			break
		}
		conn, err := s.cmdCtx.Connection(s.cmd, parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			break
		}
		s.conn = conn
		_, _ = fmt.Fprintf(out, "Using connection %s\n", conn.Name())

	case ".format":
		if len(parts) < 2 || !slices.Contains(config.OutputFormats, parts[1]) {
			_, _ = fmt.Fprintf(errOut, "Usage: .format <%s>\n", strings.Join(config.OutputFormats, "|"))
			break
		}
		s.format = parts[1]

	case ".profile":
		s.printProfile()

	case ".clear":
		_, _ = fmt.Fprint(out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (s *replSession) listTables() error {
	g, err := s.conn.Grammar()
	if err != nil {
		return err
	}
	return executeAndRender(s.cmd, s.conn, tablesSQL(g.Name()), s.format, s.cmdCtx.Out)
}

func (s *replSession) tableNames() []string {
	g, err := s.conn.Grammar()
	if err != nil {
		return nil
	}
	out, err := s.conn.Execute(s.cmd.Context(), tablesSQL(g.Name()), nil, query.FetchOptions{})
	if err != nil || out.Result == nil {
		return nil
	}
	defer func() { _ = out.Result.Close() }()

	values, err := out.Result.GetValues("name")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, formatValue(v))
	}
	return names
}

func (s *replSession) printProfile() {
	entries := s.cmdCtx.Profiler.Entries()
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(s.cmdCtx.Out, "(no profiled statements; set profile: true on the connection)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(s.cmdCtx.Out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Connection", "Elapsed", "Bindings", "SQL"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Connection, e.Elapsed, len(e.Bindings), e.SQL})
	}
	t.AppendFooter(table.Row{"", s.cmdCtx.Profiler.Total(), "", fmt.Sprintf("%d statements", len(entries))})
	t.Render()
}

// tablesSQL lists user tables for a grammar, as a single "name" column.
func tablesSQL(grammarName string) string {
	switch grammarName {
	case "sqlite":
		return `SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name`
	case "mysql":
		return `SELECT table_name AS name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name`
	case "postgres":
		return `SELECT table_name AS name FROM information_schema.tables WHERE table_schema NOT IN ('pg_catalog', 'information_schema') ORDER BY table_name`
	case "sqlserver":
		return `SELECT TABLE_NAME AS name FROM INFORMATION_SCHEMA.TABLES ORDER BY TABLE_NAME`
	default:
		return `SELECT table_name AS name FROM information_schema.tables ORDER BY table_name`
	}
}

// historyPath resolves a relative history file against the home directory.
func historyPath(file string) string {
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, file)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .tables           List tables on the current connection
  .connections      List configured connections
  .use <name>       Switch to another connection
  .format <format>  Change output format (table, json, csv, md, yaml)
  .profile          Show profiled statements
  .clear            Clear the screen
  .quit / .exit     Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// completer creates a readline completer for table names and dot-commands.
func (s *replSession) completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range s.tableNames() {
		items = append(items, readline.PcItem(name))
	}

	connections := make([]readline.PrefixCompleterInterface, 0, len(s.cmdCtx.Registry.Names()))
	for _, name := range s.cmdCtx.Registry.Names() {
		connections = append(connections, readline.PcItem(name))
	}
	formats := make([]readline.PrefixCompleterInterface, 0, len(config.OutputFormats))
	for _, f := range config.OutputFormats {
		formats = append(formats, readline.PcItem(f))
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".connections"),
		readline.PcItem(".use", connections...),
		readline.PcItem(".format", formats...),
		readline.PcItem(".profile"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
