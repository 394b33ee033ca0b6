package cli

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/metalheadbang/unleash/pkg/errors"
)

//go:embed docs/*.md
var topicDocs embed.FS

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics [topic]",
		Short: "Show long-form help topics",
		Long:  `Without arguments, list the available help topics. With a topic name, render it.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				names, err := listTopics()
				if err != nil {
					return err
				}
				fmt.Println("Available topics:")
				for _, n := range names {
					fmt.Printf("  %s\n", n)
				}
				fmt.Println("\nUse 'unleash topics <name>' to read one.")
				return nil
			}

			content, err := topicDocs.ReadFile("docs/" + args[0] + ".md")
			if err != nil {
				return errors.Newf(errors.ErrNotFound, "no help topic %q", args[0])
			}
			fmt.Print(renderMarkdown(string(content)))
			return nil
		},
	}
}

func listTopics() ([]string, error) {
	entries, err := topicDocs.ReadDir("docs")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "embedded docs unreadable")
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(names)
	return names, nil
}

// renderMarkdown converts a topic to terminal output, falling back to the
// raw text when the renderer cannot be built.
func renderMarkdown(content string) string {
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
