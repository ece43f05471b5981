package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

// shellCompletion describes how to generate and install completions for one
// shell. installPath is relative to the home directory; empty means the shell
// has no automatic install.
type shellCompletion struct {
	generate    func(w io.Writer) error
	loadHint    string
	installPath string
	postInstall []string
}

var shellCompletions = map[string]shellCompletion{
	"bash": {
		generate:    func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		loadHint:    `eval "$(nexus completion bash)"`,
		installPath: filepath.Join(".local", "share", "bash-completion", "completions", "nexus"),
		postInstall: []string{"Restart your shell to load them."},
	},
	"zsh": {
		generate:    func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
		loadHint:    `eval "$(nexus completion zsh)"`,
		installPath: filepath.Join(".local", "share", "zsh", "site-functions", "_nexus"),
		postInstall: []string{
			"Ensure the directory is in your fpath. Add to ~/.zshrc if needed:",
			"  fpath=(~/.local/share/zsh/site-functions $fpath)",
			"  autoload -Uz compinit && compinit",
		},
	},
	"fish": {
		generate:    func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		loadHint:    "nexus completion fish | source",
		installPath: filepath.Join(".config", "fish", "completions", "nexus.fish"),
		postInstall: []string{"Completions will be available in new fish sessions automatically."},
	},
	"powershell": {
		generate: func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
		loadHint: "nexus completion powershell | Out-String | Invoke-Expression",
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for nexus",
	Long: `Set up shell tab-completions for nexus commands, flags, and arguments.

Supported shells: bash, zsh, fish, powershell

Quick install (writes the script under your home directory):

  nexus completion bash --install
  nexus completion zsh --install
  nexus completion fish --install

Or print the completion script to stdout (for manual setup):

  nexus completion bash
  nexus completion powershell`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions under your home directory")

	// Remove Cobra's default completion command and add ours.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	sc, ok := shellCompletions[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", args[0])
	}

	if completionInstall {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("detecting home directory: %w", err)
		}
		return installCompletion(cmd.OutOrStdout(), home, args[0], sc)
	}

	// Hints go to stderr so they don't interfere with piping the script.
	w := cmd.ErrOrStderr()
	_, _ = fmt.Fprintln(w, "# To load completions in your current session:")
	_, _ = fmt.Fprintf(w, "#   %s\n", sc.loadHint)
	if sc.installPath != "" {
		_, _ = fmt.Fprintf(w, "# To install permanently:\n#   nexus completion %s --install\n", args[0])
	}
	return sc.generate(cmd.OutOrStdout())
}

func installCompletion(out io.Writer, home, shell string, sc shellCompletion) error {
	if sc.installPath == "" {
		return fmt.Errorf("automatic install is not supported for %s; run 'nexus completion %s' and add the output to your profile", shell, shell)
	}

	target := filepath.Join(home, sc.installPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	if err := writeCompletionFile(target, sc.generate); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "%s completions installed to %s\n", shell, target)
	for _, line := range sc.postInstall {
		_, _ = fmt.Fprintln(out, line)
	}
	return nil
}

// writeCompletionFile creates target and writes the completion script into
// it, propagating close errors.
func writeCompletionFile(target string, generate func(io.Writer) error) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}

	writeErr := generate(f)
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}
