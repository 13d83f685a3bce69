package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"
)

// LoadedFile is one export file after streaming it into memory.
type LoadedFile struct {
	Path         string
	Title        string
	Participants []string
	Messages     []RawMessage

	// Skipped counts malformed message elements that were dropped with a warning.
	Skipped int
}

// LoadedConversation is every part file of a conversation merged into chronological order.
type LoadedConversation struct {
	Conversation Conversation
	Messages     []RawMessage
	Skipped      int
}

// LoadExportFile reads a single export file.
//
// The input is expected to be either:
// - a top-level JSON object with a "messages" array (the Instagram message_N.json shape)
// - a top-level JSON array of message objects
//
// Syntax errors abort the file. Elements that parse but lack a sender or timestamp (or carry
// fields of the wrong type) are skipped and logged.
func LoadExportFile(ctx context.Context, path string, logger *zap.Logger) (LoadedFile, error) {
	if ctx == nil {
		return LoadedFile{}, errors.New("LoadExportFile: ctx is nil")
	}
	if path == "" {
		return LoadedFile{}, errors.New("LoadExportFile: path is empty")
	}
	logger = orNop(logger)

	f, err := os.Open(path)
	if err != nil {
		return LoadedFile{}, fmt.Errorf("LoadExportFile: open input: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReaderSize(f, 1<<16))

	tok, err := dec.Token()
	if err != nil {
		return LoadedFile{}, fmt.Errorf("LoadExportFile: read first token: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return LoadedFile{}, fmt.Errorf("LoadExportFile: expected JSON array/object, got %T", tok)
	}

	out := LoadedFile{Path: path}
	switch delim {
	case '[':
		if err := decodeMessagesFromOpen(ctx, dec, &out, logger); err != nil {
			return LoadedFile{}, err
		}
		if err := expectDelim(dec, ']'); err != nil {
			return LoadedFile{}, fmt.Errorf("LoadExportFile: %w", err)
		}
		return out, nil
	case '{':
		foundMessages := false
		for dec.More() {
			if err := ctx.Err(); err != nil {
				return LoadedFile{}, err
			}

			keyTok, err := dec.Token()
			if err != nil {
				return LoadedFile{}, fmt.Errorf("LoadExportFile: read object key: %w", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return LoadedFile{}, fmt.Errorf("LoadExportFile: expected string key, got %T", keyTok)
			}

			switch key {
			case "messages":
				valTok, err := dec.Token()
				if err != nil {
					return LoadedFile{}, fmt.Errorf("LoadExportFile: read messages token: %w", err)
				}
				if d, ok := valTok.(json.Delim); !ok || d != '[' {
					return LoadedFile{}, errors.New("LoadExportFile: \"messages\" is not an array")
				}
				foundMessages = true
				if err := decodeMessagesFromOpen(ctx, dec, &out, logger); err != nil {
					return LoadedFile{}, err
				}
				if err := expectDelim(dec, ']'); err != nil {
					return LoadedFile{}, fmt.Errorf("LoadExportFile: %w", err)
				}
			case "title":
				var title string
				if err := dec.Decode(&title); err != nil {
					return LoadedFile{}, fmt.Errorf("LoadExportFile: decode title: %w", err)
				}
				out.Title = title
			case "participants":
				var ps []Participant
				if err := dec.Decode(&ps); err != nil {
					return LoadedFile{}, fmt.Errorf("LoadExportFile: decode participants: %w", err)
				}
				out.Participants = participantNames(ps)
			default:
				valTok, err := dec.Token()
				if err != nil {
					return LoadedFile{}, fmt.Errorf("LoadExportFile: read value token for key %q: %w", key, err)
				}
				if err := skipValue(dec, valTok); err != nil {
					return LoadedFile{}, fmt.Errorf("LoadExportFile: skip key %q value: %w", key, err)
				}
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return LoadedFile{}, fmt.Errorf("LoadExportFile: %w", err)
		}
		if !foundMessages {
			return LoadedFile{}, errors.New("LoadExportFile: no messages array found in top-level object")
		}
		return out, nil
	default:
		return LoadedFile{}, fmt.Errorf("LoadExportFile: unsupported top-level delimiter %q", delim)
	}
}

func decodeMessagesFromOpen(ctx context.Context, dec *json.Decoder, out *LoadedFile, logger *zap.Logger) error {
	for i := 0; dec.More(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("LoadExportFile: decode message element %d: %w", i, err)
		}

		msg, err := parseMessageElement(raw)
		if err != nil {
			out.Skipped++
			logger.Warn("skipping malformed message",
				zap.String("file", out.Path),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}
		out.Messages = append(out.Messages, msg)
	}
	return nil
}

func parseMessageElement(raw json.RawMessage) (RawMessage, error) {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return RawMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	msg, reason, ok := w.toRaw()
	if !ok {
		return RawMessage{}, fmt.Errorf("%w: %s", ErrMalformedMessage, reason)
	}
	return msg, nil
}

// LoadConversation loads every part file of conv, keeps the parts whose title matches the
// conversation title, and merges their messages in chronological order. Messages sharing a
// timestamp keep their source order.
func LoadConversation(ctx context.Context, conv Conversation, logger *zap.Logger) (LoadedConversation, error) {
	if len(conv.Files) == 0 {
		return LoadedConversation{}, fmt.Errorf("LoadConversation: %q has no message files", conv.FolderID)
	}
	logger = orNop(logger)

	out := LoadedConversation{Conversation: conv}
	for _, path := range conv.Files {
		lf, err := LoadExportFile(ctx, path, logger)
		if err != nil {
			return LoadedConversation{}, fmt.Errorf("LoadConversation: %w", err)
		}
		if conv.Title != "" && lf.Title != "" && FixEncoding(lf.Title) != conv.Title {
			logger.Info("ignoring part file from a different thread",
				zap.String("file", path),
				zap.String("title", FixEncoding(lf.Title)),
				zap.String("want_title", conv.Title))
			continue
		}
		if len(out.Conversation.Participants) == 0 && len(lf.Participants) > 0 {
			out.Conversation.Participants = decodeAll(lf.Participants)
		}
		if out.Conversation.Title == "" && lf.Title != "" {
			out.Conversation.Title = FixEncoding(lf.Title)
		}
		out.Messages = append(out.Messages, lf.Messages...)
		out.Skipped += lf.Skipped
	}

	sort.SliceStable(out.Messages, func(i, j int) bool {
		return out.Messages[i].TimestampMS < out.Messages[j].TimestampMS
	})
	return out, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read closing %q token: %w", want, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected closing %q, got %v", want, tok)
	}
	return nil
}

func skipValue(dec *json.Decoder, first json.Token) error {
	d, ok := first.(json.Delim)
	if !ok {
		// Primitive (string/number/bool/null): already fully consumed.
		return nil
	}

	switch d {
	case '{', '[':
	default:
		return fmt.Errorf("skipValue: unexpected delimiter %q", d)
	}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if dd, ok := tok.(json.Delim); ok {
			switch dd {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
