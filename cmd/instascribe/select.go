package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/theimaginaryfoundation/instascribe/dataset"
)

// Selector picks the conversations a run should process.
type Selector interface {
	Select(convs []dataset.Conversation) ([]dataset.Conversation, error)
}

// allSelector keeps everything; used for positional file arguments.
type allSelector struct{}

func (allSelector) Select(convs []dataset.Conversation) ([]dataset.Conversation, error) {
	return convs, nil
}

// listSelector applies a fixed selection such as "all" or "1,3,5" (1-based, as printed by -list).
type listSelector struct {
	spec string
}

func (s listSelector) Select(convs []dataset.Conversation) ([]dataset.Conversation, error) {
	idx, err := parseSelection(s.spec, len(convs))
	if err != nil {
		return nil, err
	}
	return pick(convs, idx), nil
}

// promptSelector lists the conversations on out and asks for a selection on in until it gets a
// valid answer.
type promptSelector struct {
	in  io.Reader
	out io.Writer
}

func (s promptSelector) Select(convs []dataset.Conversation) ([]dataset.Conversation, error) {
	printConversations(s.out, convs)

	sc := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "\nSelect conversations (A for all, or numbers like 1,3): ")
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("read selection: %w", err)
			}
			return nil, errors.New("no selection made")
		}
		idx, err := parseSelection(sc.Text(), len(convs))
		if err != nil {
			fmt.Fprintln(s.out, err.Error())
			continue
		}
		return pick(convs, idx), nil
	}
}

// parseSelection turns "all"/"a" or a comma list of 1-based numbers into sorted, de-duplicated
// 0-based indexes.
func parseSelection(spec string, n int) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("empty selection")
	}
	if strings.EqualFold(spec, "a") || strings.EqualFold(spec, "all") {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}

	seen := make(map[int]bool)
	var idx []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q: not a number", part)
		}
		if num < 1 || num > n {
			return nil, fmt.Errorf("invalid selection %d: want 1-%d", num, n)
		}
		if !seen[num-1] {
			seen[num-1] = true
			idx = append(idx, num-1)
		}
	}
	if len(idx) == 0 {
		return nil, errors.New("empty selection")
	}
	sort.Ints(idx)
	return idx, nil
}

func pick(convs []dataset.Conversation, idx []int) []dataset.Conversation {
	out := make([]dataset.Conversation, 0, len(idx))
	for _, i := range idx {
		out = append(out, convs[i])
	}
	return out
}

func printConversations(w io.Writer, convs []dataset.Conversation) {
	for i, c := range convs {
		fmt.Fprintf(w, "%3d. %s (%s, %d part", i+1, c.DisplayName(), c.FolderID, len(c.Files))
		if len(c.Files) != 1 {
			fmt.Fprint(w, "s")
		}
		fmt.Fprintln(w, ")")
	}
}
