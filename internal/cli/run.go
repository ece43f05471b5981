package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo-nexus/internal/core"
	"github.com/valter-silva-au/todo-nexus/pkg/models"
	"gopkg.in/yaml.v3"
)

var (
	runJSON bool
	runYAML bool
)

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Apply a script of task commands and print the resulting list",
	Long: `Apply task commands, one per line, to a fresh task list and print the
projected list and counts when the script ends. Reads stdin when no script
file is given.

Commands:
  add [-p high|medium|low] [--] <text>
                                    add a task (default priority: configured draft priority)
  toggle <id>                       complete or reopen a task
  star <id>                         star or unstar a task
  remove <id>                       delete a task
  archive                           remove every completed task
  edit <id> <text>                  replace a task's text
  filter all|active|completed|starred
  search [term]                     empty term clears the search
  sort newest|oldest|priority|alphabetical

Task text is taken verbatim, so it may start with a dash. Lines starting
with # are comments. An id of the form @N refers to the task
created by the Nth add in the script.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeScriptFiles,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runJSON && runYAML {
			return fmt.Errorf("--json and --yaml are mutually exclusive")
		}

		store, err := newSessionStore()
		if err != nil {
			return err
		}

		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening script: %w", err)
			}
			defer func() { _ = f.Close() }()
			in = f
		}

		if err := runScript(store, in); err != nil {
			return err
		}

		format := formatTable
		switch {
		case runJSON:
			format = formatJSON
		case runYAML:
			format = formatYAML
		}
		return writeReport(cmd.OutOrStdout(), newReport(store), format)
	},
}

// scriptSession tracks the IDs of tasks created by a script so later lines
// can refer to them as @N.
type scriptSession struct {
	store core.TaskStore
	added []string
}

// runScript applies every command in r to store, stopping at the first
// malformed line.
func runScript(store core.TaskStore, r io.Reader) error {
	session := &scriptSession{store: store}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cmd := session.newCommand()
		cmd.SetArgs(strings.Fields(line))
		if err := cmd.Execute(); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	return nil
}

// resolveID maps @N references to the ID of the Nth added task.
func (s *scriptSession) resolveID(ref string) (string, error) {
	if !strings.HasPrefix(ref, "@") {
		return ref, nil
	}
	n, err := strconv.Atoi(ref[1:])
	if err != nil || n < 1 || n > len(s.added) {
		return "", fmt.Errorf("unknown task reference %q", ref)
	}
	return s.added[n-1], nil
}

// newCommand builds a fresh command tree for a single script line so that
// no parsing state leaks between lines.
func (s *scriptSession) newCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "script",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	// Task text is free-form, so add, edit and search take their arguments
	// verbatim; add reads its priority flag from the leading tokens itself.
	add := &cobra.Command{
		Use:                "add [-p priority] [--] <text>",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			priority, text, err := splitAddArgs(args)
			if err != nil {
				return err
			}
			p := s.store.NewTaskDraft().Priority
			if priority != "" {
				parsed, err := models.ParsePriority(priority)
				if err != nil {
					return err
				}
				p = parsed
			}
			task, ok := s.store.Add(strings.Join(text, " "), p)
			if ok {
				s.added = append(s.added, task.ID)
			}
			return nil
		},
	}

	byID := func(use string, apply func(id string) bool) *cobra.Command {
		return &cobra.Command{
			Use:  use + " <id>",
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := s.resolveID(args[0])
				if err != nil {
					return err
				}
				apply(id)
				return nil
			},
		}
	}

	edit := &cobra.Command{
		Use:                "edit <id> <text>",
		Args:               cobra.MinimumNArgs(2),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := s.resolveID(args[0])
			if err != nil {
				return err
			}
			task, ok := s.store.Get(id)
			if !ok {
				return nil
			}
			s.store.BeginEdit(id, task.Text)
			s.store.SetEditDraft(strings.Join(args[1:], " "))
			s.store.CommitEdit(id)
			return nil
		},
	}

	archive := &cobra.Command{
		Use:  "archive",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.store.ArchiveCompleted()
			return nil
		},
	}

	filter := &cobra.Command{
		Use:  "filter <mode>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := models.ParseFilterMode(args[0])
			if err != nil {
				return err
			}
			s.store.SetFilter(mode)
			return nil
		},
	}

	search := &cobra.Command{
		Use:                "search [term]",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.store.SetSearch(strings.Join(args, " "))
			return nil
		},
	}

	sortCmd := &cobra.Command{
		Use:  "sort <mode>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := models.ParseSortMode(args[0])
			if err != nil {
				return err
			}
			s.store.SetSort(mode)
			return nil
		},
	}

	root.AddCommand(
		add,
		byID("toggle", s.store.ToggleComplete),
		byID("star", s.store.ToggleStar),
		byID("remove", s.store.Remove),
		edit,
		archive,
		filter,
		search,
		sortCmd,
	)
	return root
}

// splitAddArgs separates an optional leading -p/--priority flag and an
// optional "--" from the task text. Everything after them is text, even when
// it starts with a dash.
func splitAddArgs(args []string) (priority string, text []string, err error) {
	rest := args
	if len(rest) > 0 {
		switch first := rest[0]; {
		case first == "-p" || first == "--priority":
			if len(rest) < 2 {
				return "", nil, fmt.Errorf("flag needs an argument: %s", first)
			}
			priority, rest = rest[1], rest[2:]
		case strings.HasPrefix(first, "--priority="):
			priority, rest = strings.TrimPrefix(first, "--priority="), rest[1:]
		case strings.HasPrefix(first, "-p="):
			priority, rest = strings.TrimPrefix(first, "-p="), rest[1:]
		}
	}
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", nil, fmt.Errorf("add requires task text")
	}
	return priority, rest, nil
}

// report is the printable result of a session.
type report struct {
	Settings models.ViewSettings `json:"settings" yaml:"settings"`
	Tasks    []models.Task       `json:"tasks" yaml:"tasks"`
	Counts   models.Counts       `json:"counts" yaml:"counts"`
}

func newReport(store core.TaskStore) report {
	return report{
		Settings: store.Settings(),
		Tasks:    store.View(),
		Counts:   store.Counts(),
	}
}

type outputFormat int

const (
	formatTable outputFormat = iota
	formatJSON
	formatYAML
)

func writeReport(w io.Writer, r report, format outputFormat) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting tasks as JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("formatting tasks as YAML: %w", err)
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "Tasks (filter: %s, sort: %s", r.Settings.Filter, r.Settings.Sort)
	if r.Settings.Search != "" {
		fmt.Fprintf(w, ", search: %q", r.Settings.Search)
	}
	fmt.Fprintln(w, ")")
	fmt.Fprintln(w)

	if len(r.Tasks) == 0 {
		fmt.Fprintln(w, "  No tasks found.")
	}
	for _, t := range r.Tasks {
		fmt.Fprintf(w, "  %s %s %-12s %-6s  %s  (%s)\n",
			checkbox(t), starMark(t), t.ID, t.Priority, t.Text, timestamps(t))
	}

	fmt.Fprintf(w, "\n  Total: %d  Active: %d  Completed: %d  Starred: %d\n",
		r.Counts.Total, r.Counts.Active, r.Counts.Completed, r.Counts.Starred)
	return nil
}

func checkbox(t models.Task) string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

func starMark(t models.Task) string {
	if t.IsStarred {
		return "*"
	}
	return " "
}

// timestampLayout matches the short "Jan 2, 15:04" style used in the task list.
const timestampLayout = "Jan 2, 15:04"

// timestamps renders creation and completion times in the local zone.
func timestamps(t models.Task) string {
	s := "created " + t.CreatedAt.Local().Format(timestampLayout)
	if t.CompletedAt != nil {
		s += ", done " + t.CompletedAt.Local().Format(timestampLayout)
	}
	return s
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Output the task list as JSON")
	runCmd.Flags().BoolVar(&runYAML, "yaml", false, "Output the task list as YAML")
	rootCmd.AddCommand(runCmd)
}
