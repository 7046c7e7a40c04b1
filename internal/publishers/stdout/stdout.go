package stdout

import (
	"context"
	"fmt"
	"io"
	"os"

	"submix/internal/publishers"
)

type Publisher struct {
	Out io.Writer // nil means os.Stdout
}

// Publish prints the document. With params.banner set it is framed so it
// stands out among log lines in a terminal.
func (p *Publisher) Publish(_ context.Context, doc *publishers.Document, config map[string]interface{}) error {
	out := p.Out
	if out == nil {
		out = os.Stdout
	}

	banner, _ := config["banner"].(bool)
	if banner {
		fmt.Fprintf(out, "========== SUBSCRIPTION (%s, %d nodes) ==========\n", doc.Format, doc.Nodes)
	}
	if _, err := io.WriteString(out, doc.Content); err != nil {
		return err
	}
	if len(doc.Content) > 0 && doc.Content[len(doc.Content)-1] != '\n' {
		fmt.Fprintln(out)
	}
	if banner {
		fmt.Fprintln(out, "=================================================")
	}
	return nil
}

func init() {
	publishers.Register("stdout", func() publishers.Publisher { return &Publisher{} })
}
