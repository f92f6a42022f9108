package directive

import (
	"bufio"
	"fmt"
	"io"
)

// Render writes directives in aria2c input-file format: the URL on its own
// line, followed by an indented out= option when a name was synthesized.
func Render(w io.Writer, directives []Directive) error {
	buf := bufio.NewWriter(w)
	for _, d := range directives {
		if _, err := buf.WriteString(d.URL + "\n"); err != nil {
			return fmt.Errorf("write directive %d: %w", d.Index, err)
		}
		if d.OutputName == "" {
			continue
		}
		if _, err := buf.WriteString(" out=" + d.OutputName + "\n"); err != nil {
			return fmt.Errorf("write directive %d: %w", d.Index, err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flush directives: %w", err)
	}
	return nil
}
