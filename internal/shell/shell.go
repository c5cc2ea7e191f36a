// Package shell provides the interactive dirkit session.
//
// A Session holds one organizer.Engine for its lifetime, so a folder selected
// with "select" stays selected and the latest organize run can be undone until
// another run replaces it.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/klytics/dirkit/internal/organizer"
	"github.com/klytics/dirkit/internal/report"
)

// ErrQuit is returned by Eval for "exit" and "quit".
var ErrQuit = errors.New("quit")

// Verbs is the list of session commands, used for help and completion.
var Verbs = []string{
	"select", "organize", "preview", "undo", "cleanup", "status",
	"categories", "classify", "report", "history", "help", "exit", "quit",
}

// Session manages an interactive dirkit shell session.
type Session struct {
	Engine         *organizer.Engine
	Out            io.Writer
	HistoryFile    string
	CommandHistory []string
	StartTime      time.Time

	last *organizer.OrganizeResult
}

// NewSession creates a session around engine that prints to out.
func NewSession(engine *organizer.Engine, out io.Writer) *Session {
	home, _ := os.UserHomeDir()
	histFile := filepath.Join(home, ".dirkit", "shell_history")
	os.MkdirAll(filepath.Dir(histFile), 0755)

	if out == nil {
		out = os.Stdout
	}
	return &Session{
		Engine:      engine,
		Out:         out,
		HistoryFile: histFile,
		StartTime:   time.Now(),
	}
}

// Run starts the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.HistoryFile,
		AutoComplete:    readline.NewPrefixCompleter(s.buildCompleter()...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(s.Out, "dirkit interactive shell")
	fmt.Fprintln(s.Out, "Type 'help' for commands, 'exit' to quit.")
	fmt.Fprintln(s.Out)

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}

		err = s.Eval(ctx, line)
		if errors.Is(err, ErrQuit) {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		rl.SetPrompt(s.prompt())
	}

	fmt.Fprintf(s.Out, "\nSession ended. %d commands run in %s.\n",
		len(s.CommandHistory), formatDuration(time.Since(s.StartTime)))
	return nil
}

// Eval runs one session command. It returns ErrQuit for "exit" and "quit".
func (s *Session) Eval(_ context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	verb, arg := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		verb, arg = line[:i], strings.TrimSpace(line[i+1:])
	}

	if verb == "exit" || verb == "quit" {
		return ErrQuit
	}
	s.CommandHistory = append(s.CommandHistory, line)

	switch verb {
	case "help":
		s.printHelp()
		return nil
	case "history":
		for i, cmd := range s.CommandHistory {
			fmt.Fprintf(s.Out, "  %d  %s\n", i+1, cmd)
		}
		return nil
	case "select":
		if arg == "" {
			return fmt.Errorf("usage: select <directory>")
		}
		_, err := s.Engine.Select(expandHome(arg))
		return err
	case "organize":
		return s.organize(arg, false)
	case "preview":
		return s.organize(arg, true)
	case "undo":
		_, err := s.Engine.Undo()
		if err == nil {
			s.last = nil
		}
		return err
	case "cleanup":
		dir, err := s.dir(arg)
		if err != nil {
			return err
		}
		res, err := s.Engine.Cleanup(dir)
		if err != nil {
			return err
		}
		if len(res.Removed) == 0 {
			fmt.Fprintln(s.Out, "No empty category folders.")
		}
		return nil
	case "status":
		s.printStatus()
		return nil
	case "categories":
		for _, c := range s.Engine.Table().Categories() {
			exts := strings.Join(c.Extensions, " ")
			if len(c.Extensions) == 0 {
				exts = "(everything else)"
			}
			fmt.Fprintf(s.Out, "  %-10s %s\n", c.Name, exts)
		}
		return nil
	case "classify":
		if arg == "" {
			return fmt.Errorf("usage: classify <extension|file>...")
		}
		for _, f := range strings.Fields(arg) {
			fmt.Fprintf(s.Out, "  %s -> %s\n", f, s.Engine.Table().Classify(extOf(f)))
		}
		return nil
	case "report":
		if arg == "" {
			return fmt.Errorf("usage: report <file.xlsx>")
		}
		if s.last == nil {
			return fmt.Errorf("nothing to report; run organize or preview first")
		}
		path := expandHome(arg)
		if err := report.WriteFile(s.last, s.Engine.Table().Names(), path); err != nil {
			return err
		}
		fmt.Fprintf(s.Out, "Report written to %s\n", path)
		return nil
	}

	return fmt.Errorf("unknown command %q (type 'help' for commands)", verb)
}

func (s *Session) organize(arg string, dryRun bool) error {
	dir, err := s.dir(arg)
	if err != nil {
		return err
	}
	if arg != "" {
		if _, err := s.Engine.Select(dir); err != nil {
			return err
		}
	}

	var res *organizer.OrganizeResult
	if dryRun {
		res, err = s.Engine.Plan(dir)
	} else {
		res, err = s.Engine.Organize(dir)
	}
	if err != nil {
		return err
	}
	s.last = res
	return nil
}

// dir returns arg, or the selected folder when arg is empty.
func (s *Session) dir(arg string) (string, error) {
	if arg != "" {
		return expandHome(arg), nil
	}
	if sel := s.Engine.Selected(); sel != "" {
		return sel, nil
	}
	return "", fmt.Errorf("%w; use: select <directory>", organizer.ErrNoDirectory)
}

func (s *Session) printStatus() {
	st := s.Engine.State()
	selected := st.Selected
	if selected == "" {
		selected = "(none)"
	}
	fmt.Fprintf(s.Out, "  Selected:    %s\n", selected)
	if st.Pending > 0 {
		fmt.Fprintf(s.Out, "  Can undo:    %d moves in %s\n", st.Pending, st.LedgerDir)
	} else {
		fmt.Fprintln(s.Out, "  Can undo:    nothing")
	}
	fmt.Fprintf(s.Out, "  Categories:  %s\n", strings.Join(s.Engine.Table().Names(), ", "))
}

// Complete returns tab-completion candidates for the given input.
func (s *Session) Complete(input string) []string {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return Verbs
	}
	if len(parts) == 1 && !strings.HasSuffix(input, " ") {
		var matches []string
		for _, v := range Verbs {
			if strings.HasPrefix(v, parts[0]) {
				matches = append(matches, v)
			}
		}
		sort.Strings(matches)
		return matches
	}
	if parts[0] == "classify" {
		prefix := ""
		if !strings.HasSuffix(input, " ") {
			prefix = strings.ToLower(parts[len(parts)-1])
		}
		var matches []string
		for _, c := range s.Engine.Table().Categories() {
			for _, ext := range c.Extensions {
				if strings.HasPrefix(ext, prefix) {
					matches = append(matches, ext)
				}
			}
		}
		return matches
	}
	return nil
}

func (s *Session) buildCompleter() []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for _, v := range Verbs {
		switch v {
		case "select", "organize", "preview", "cleanup":
			items = append(items, readline.PcItem(v, readline.PcItemDynamic(s.listDirs)))
		case "classify":
			var exts []readline.PrefixCompleterInterface
			for _, c := range s.Engine.Table().Categories() {
				for _, ext := range c.Extensions {
					exts = append(exts, readline.PcItem(ext))
				}
			}
			items = append(items, readline.PcItem(v, exts...))
		default:
			items = append(items, readline.PcItem(v))
		}
	}
	return items
}

// listDirs offers subdirectories of the selected folder, or of the working directory.
func (s *Session) listDirs(string) []string {
	base := s.Engine.Selected()
	if base == "" {
		base = "."
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, filepath.Join(base, e.Name()))
		}
	}
	return dirs
}

func (s *Session) prompt() string {
	if sel := s.Engine.Selected(); sel != "" {
		return fmt.Sprintf("dirkit %s> ", filepath.Base(sel))
	}
	return "dirkit> "
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.Out, "Available commands:")
	fmt.Fprintln(s.Out)
	fmt.Fprintln(s.Out, "  select <dir>        choose the folder to organize")
	fmt.Fprintln(s.Out, "  organize [dir]      sort files into category folders")
	fmt.Fprintln(s.Out, "  preview [dir]       show where files would go without moving them")
	fmt.Fprintln(s.Out, "  undo                move the last organized files back")
	fmt.Fprintln(s.Out, "  cleanup [dir]       remove empty category folders")
	fmt.Fprintln(s.Out, "  status              show the selected folder and undo state")
	fmt.Fprintln(s.Out, "  categories          list the category table")
	fmt.Fprintln(s.Out, "  classify <ext>...   show the category for extensions or file names")
	fmt.Fprintln(s.Out, "  report <file.xlsx>  save the last organize or preview as a workbook")
	fmt.Fprintln(s.Out, "  history             show command history")
	fmt.Fprintln(s.Out, "  exit                leave the shell")
}

func extOf(arg string) string {
	if ext := filepath.Ext(arg); ext != "" {
		return ext
	}
	return arg
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, sec)
}
