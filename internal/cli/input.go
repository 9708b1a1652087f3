// Package cli is an interactive checker for descriptions, mostly for trying
// the suggester and dictionary by hand.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bastiangx/dotlabel/internal/logger"
	"github.com/bastiangx/dotlabel/internal/utils"
	"github.com/bastiangx/dotlabel/pkg/animrange"
	"github.com/bastiangx/dotlabel/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/cheynewallace/tabby"
)

const helpText = `Type a description and press Enter to check its spelling.
Commands:
  :add <text>            learn the words of text
  :complete <prefix>     known words starting with prefix
  :range <s> [offset]    parse a start-end range, optionally shifted
  :stats                 vocabulary statistics
  :save                  write the dictionary
  :help                  this text`

// InputHandler reads lines and prints suggestions as tables.
type InputHandler struct {
	checker  suggest.IChecker
	dataPath string
	limit    int
	out      io.Writer
	log      *log.Logger
}

// NewInputHandler creates a handler. dataPath is used by :save and may be empty.
func NewInputHandler(checker suggest.IChecker, limit int, dataPath string) *InputHandler {
	return &InputHandler{
		checker:  checker,
		dataPath: dataPath,
		limit:    limit,
		out:      os.Stdout,
		log:      logger.Default("cli"),
	}
}

// Start runs the loop on stdin/stdout.
func (h *InputHandler) Start() error {
	h.log.Print("dotlabel CLI")
	h.log.Print("type a description and press Enter (:help for commands, Ctrl+C to exit)")
	return h.Run(os.Stdin, os.Stdout)
}

// Run reads lines from r until it is exhausted, writing results to w.
func (h *InputHandler) Run(r io.Reader, w io.Writer) error {
	h.out = w
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
	return scanner.Err()
}

func (h *InputHandler) handleInput(line string) {
	if !strings.HasPrefix(line, ":") {
		h.check(line)
		return
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "add":
		h.add(arg)
	case "complete":
		h.complete(arg)
	case "range":
		h.parseRange(arg)
	case "stats":
		h.stats()
	case "save":
		h.save()
	case "help":
		fmt.Fprintln(h.out, helpText)
	default:
		h.log.Errorf("Unknown command: %s", cmd)
	}
}

func (h *InputHandler) table() *tabby.Tabby {
	return tabby.NewCustom(tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0))
}

func (h *InputHandler) check(text string) {
	start := time.Now()
	corrections := h.checker.CheckDescription(text)
	h.log.Debugf("Took [ %v ] for '%s'", time.Since(start), utils.Truncate(text, 40))

	if len(corrections) == 0 {
		fmt.Fprintln(h.out, "No spelling suggestions.")
		return
	}
	t := h.table()
	t.AddHeader("WORD", "SUGGESTIONS")
	for _, c := range corrections {
		suggestions := c.Suggestions
		if h.limit > 0 && len(suggestions) > h.limit {
			suggestions = suggestions[:h.limit]
		}
		t.AddLine(c.Word, strings.Join(suggestions, ", "))
	}
	t.Print()
}

func (h *InputHandler) add(text string) {
	tokens, err := h.checker.Learn(text)
	if len(tokens) == 0 {
		h.log.Error("Nothing to add")
		return
	}
	if err != nil {
		h.log.Warnf("Learned but not saved: %v", err)
	}
	fmt.Fprintf(h.out, "Added: %s\n", strings.Join(tokens, " "))
}

func (h *InputHandler) complete(prefix string) {
	if prefix == "" {
		h.log.Error("Usage: :complete <prefix>")
		return
	}
	found := h.checker.Complete(prefix, h.limit)
	if len(found) == 0 {
		h.log.Warnf("No completions for '%s'", prefix)
		return
	}
	t := h.table()
	t.AddHeader("#", "WORD", "FREQ")
	for i, s := range found {
		t.AddLine(i+1, s.Word, utils.FormatWithCommas(s.Frequency))
	}
	t.Print()
}

func (h *InputHandler) parseRange(arg string) {
	fields := strings.Fields(arg)
	if len(fields) == 0 || len(fields) > 2 {
		h.log.Error("Usage: :range <start-end> [offset]")
		return
	}
	r, err := animrange.Parse(fields[0])
	if err != nil {
		h.log.Errorf("%v", err)
		return
	}
	if len(fields) == 2 {
		offset, err := strconv.Atoi(fields[1])
		if err != nil {
			h.log.Errorf("Invalid offset: %s", fields[1])
			return
		}
		r = r.Shift(offset)
	}
	fmt.Fprintf(h.out, "%s (start %d, end %d, %d frames)\n", r, r.Start, r.End, r.Duration())
}

func (h *InputHandler) stats() {
	stats := h.checker.Stats()
	t := h.table()
	t.AddHeader("STAT", "VALUE")
	for _, k := range slices.Sorted(maps.Keys(stats)) {
		t.AddLine(k, utils.FormatWithCommas(stats[k]))
	}
	t.Print()
}

func (h *InputHandler) save() {
	saver, ok := h.checker.(interface{ Save(string) error })
	if !ok || h.dataPath == "" {
		h.log.Error("No dictionary file to save to")
		return
	}
	if err := saver.Save(h.dataPath); err != nil {
		h.log.Errorf("Save failed: %v", err)
		return
	}
	fmt.Fprintf(h.out, "Saved to %s\n", h.dataPath)
}
