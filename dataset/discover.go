package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const firstPartFile = "message_1.json"

// Conversation is one DM thread in an export: a folder holding message_N.json part files, or
// a single JSON file given directly.
type Conversation struct {
	Dir          string
	FolderID     string
	Title        string
	Participants []string

	// Files are the part files in ascending part order.
	Files []string
}

// DisplayName is the title, or the folder id for untitled threads.
func (c Conversation) DisplayName() string {
	if c.Title != "" {
		return c.Title
	}
	return c.FolderID
}

// FindConversations walks root and returns every folder that contains a message_1.json,
// sorted by title (case-insensitive) and then folder id.
//
// A folder whose message_1.json header cannot be read is still returned, titled by its folder
// id, so the failure shows up when the conversation is processed.
func FindConversations(root string, logger *zap.Logger) ([]Conversation, error) {
	if root == "" {
		return nil, errors.New("FindConversations: root is empty")
	}
	logger = orNop(logger)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("FindConversations: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("FindConversations: %s is not a directory", root)
	}

	var convs []Conversation
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Name() != firstPartFile {
			return nil
		}

		dir := filepath.Dir(path)
		conv := Conversation{Dir: dir, FolderID: filepath.Base(dir)}

		files, err := partFiles(dir)
		if err != nil {
			logger.Warn("listing part files failed", zap.String("dir", dir), zap.Error(err))
			files = []string{path}
		}
		conv.Files = files

		title, participants, err := readExportHeader(path)
		if err != nil {
			logger.Warn("reading conversation header failed",
				zap.String("file", path),
				zap.Error(err))
		} else {
			conv.Title = title
			conv.Participants = participants
		}
		convs = append(convs, conv)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("FindConversations: walk: %w", err)
	}

	sort.SliceStable(convs, func(i, j int) bool {
		ti, tj := strings.ToLower(convs[i].DisplayName()), strings.ToLower(convs[j].DisplayName())
		if ti != tj {
			return ti < tj
		}
		return convs[i].FolderID < convs[j].FolderID
	})
	return convs, nil
}

// ConversationFromFile wraps a single export file as a conversation of its own. Its title and
// participants are filled in when the file is loaded.
func ConversationFromFile(path string) Conversation {
	path = filepath.Clean(path)
	base := filepath.Base(path)
	return Conversation{
		Dir:      filepath.Dir(path),
		FolderID: strings.TrimSuffix(base, filepath.Ext(base)),
		Files:    []string{path},
	}
}

func readExportHeader(path string) (string, []string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	var hdr struct {
		Title        string        `json:"title"`
		Participants []Participant `json:"participants"`
	}
	if err := json.Unmarshal(b, &hdr); err != nil {
		return "", nil, err
	}
	return FixEncoding(hdr.Title), decodeAll(participantNames(hdr.Participants)), nil
}

// partFiles lists message_N.json files in dir ordered by N.
func partFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type part struct {
		n    int
		name string
	}
	var parts []part
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "message_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "message_"), ".json"))
		if err != nil {
			n = -1
		}
		parts = append(parts, part{n: n, name: name})
	}
	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].n != parts[j].n {
			return parts[i].n < parts[j].n
		}
		return parts[i].name < parts[j].name
	})

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, filepath.Join(dir, p.name))
	}
	return out, nil
}
