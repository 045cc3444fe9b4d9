package session

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	transcriptHeader = "# AstraTerm Session History"
	cwdHeaderPrefix  = "# Working Directory: "
	commandPrefix    = "$ "

	// CompressedExt marks transcript files stored zstd-compressed
	CompressedExt = ".zst"
)

// Transcript renders a snapshot in the saved-session text format.
// Output lines that would parse as commands are indented by two spaces.
func Transcript(snap Snapshot) string {
	var b strings.Builder
	b.WriteString(transcriptHeader)
	b.WriteByte('\n')
	b.WriteString(cwdHeaderPrefix)
	b.WriteString(snap.Cwd)
	b.WriteString("\n\n")

	for _, e := range snap.History {
		b.WriteString(commandPrefix)
		b.WriteString(e.Command)
		b.WriteByte('\n')

		body := e.Output
		if body == "" && e.Error != nil {
			body = *e.Error
		}
		body = strings.TrimRight(body, "\n")
		if body != "" {
			for _, line := range strings.Split(body, "\n") {
				if strings.HasPrefix(line, commandPrefix) {
					b.WriteString("  ")
				}
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseTranscript extracts the command sequence from a transcript
func ParseTranscript(r io.Reader) ([]string, error) {
	var commands []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if !strings.HasPrefix(line, commandPrefix) {
			continue
		}
		if cmd := strings.TrimSpace(line[len(commandPrefix):]); cmd != "" {
			commands = append(commands, cmd)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return commands, nil
}

// ParseTranscriptString is ParseTranscript over a string
func ParseTranscriptString(text string) []string {
	commands, _ := ParseTranscript(strings.NewReader(text))
	return commands
}

// WriteTranscriptFile saves snap to path, compressing when path ends in .zst
func WriteTranscriptFile(path string, snap Snapshot) error {
	data := []byte(Transcript(snap))

	if strings.HasSuffix(path, CompressedExt) {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		_ = enc.Close()
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// ReadTranscriptFile loads the command sequence saved at path
func ReadTranscriptFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	if strings.HasSuffix(path, CompressedExt) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()

		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress transcript: %w", err)
		}
	}

	return ParseTranscript(bytes.NewReader(data))
}
