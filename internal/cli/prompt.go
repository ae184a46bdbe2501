package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kacperjurak/goocclusion/pkg/dataset"
)

// ErrNoInput is returned when the input ends before a valid choice.
var ErrNoInput = errors.New("no reference selected")

// PromptReference lists files on out and reads a 1-based choice from in,
// asking again until the answer is a valid number.
func PromptReference(in io.Reader, out io.Writer, files []string) (dataset.Selection, error) {
	if len(files) == 0 {
		return dataset.Selection{}, dataset.ErrNoReference
	}
	if len(files) == 1 {
		return dataset.Selection{Index: 1}, nil
	}

	fmt.Fprintln(out, TitleStyle.Render("Reference measurements"))
	for i, f := range files {
		fmt.Fprintf(out, "  %s %s\n", KeyStyle.Render(fmt.Sprintf("[%d]", i+1)), ValueStyle.Render(f))
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Select a reference (1-%d): ", len(files))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return dataset.Selection{}, err
			}
			fmt.Fprintln(out)
			return dataset.Selection{}, ErrNoInput
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || n < 1 || n > len(files) {
			fmt.Fprintf(out, "%s enter a number between 1 and %d\n", ErrorStyle.Render("Invalid input:"), len(files))
			continue
		}
		return dataset.Selection{Index: n}, nil
	}
}
