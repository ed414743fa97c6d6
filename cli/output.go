package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dataworks/dataworks/engine/core"
	"github.com/dataworks/dataworks/engine/infra/server"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	OutputFormatJSON = "json"
	OutputFormatText = "text"
)

var (
	idStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	aliasStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	detailStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#888888"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F"))
)

// outputFormat honors an explicit --output flag and otherwise prints text
// only to an interactive terminal.
func outputFormat(cmd *cobra.Command) string {
	if format, err := cmd.Flags().GetString("output"); err == nil && format != "" {
		return format
	}
	if os.Getenv("NO_COLOR") == "" && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) {
		return OutputFormatText
	}
	return OutputFormatJSON
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeTaskList(w io.Writer, format string, tasks []server.TaskSummary) error {
	if format == OutputFormatJSON {
		return writeJSON(w, tasks)
	}
	for _, t := range tasks {
		line := idStyle.Render(t.ID)
		if len(t.Aliases) > 0 {
			line += " " + aliasStyle.Render("("+strings.Join(t.Aliases, ", ")+")")
		}
		if _, err := fmt.Fprintf(w, "%s\n    %s\n", line, t.Description); err != nil {
			return err
		}
	}
	return nil
}

func writeFailure(w io.Writer, format string, err error) {
	problem := core.NormalizeProblem(server.ProblemFromError(err))
	if format == OutputFormatJSON {
		_ = writeJSON(w, core.BuildProblemBody(problem))
		return
	}
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%v: %s", problem.Extras["code"], problem.Detail)))
	if coreErr, ok := core.AsError(err); ok && len(coreErr.Details) > 0 {
		details, _ := json.Marshal(coreErr.Details)
		fmt.Fprintln(w, detailStyle.Render("Details: "+string(details)))
	}
}
