package corpus

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// ReadLines parses the static corpus format: one post per line, wrapped in
// single quotes and followed by a comma, with inner quotes escaped as \'.
// Unquoted lines are accepted as-is. Blank lines are skipped.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var texts []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.TrimRight(line, ",")
		if len(line) >= 2 && line[0] == '\'' && line[len(line)-1] == '\'' {
			line = line[1 : len(line)-1]
		} else {
			line = strings.Trim(line, "'")
		}
		line = strings.ReplaceAll(line, `\'`, "'")
		if line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return texts, nil
}

// ReadLinesFile reads a static corpus file from disk.
func ReadLinesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	return ReadLines(f)
}

// WriteLines writes texts in the format read by ReadLines. Line breaks inside
// a text are flattened to spaces.
func WriteLines(w io.Writer, texts []string) error {
	bw := bufio.NewWriter(w)
	for _, text := range texts {
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}
		text = strings.ReplaceAll(text, "'", `\'`)
		if _, err := bw.WriteString("'" + text + "',\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteLinesFile atomically replaces path with texts in the static format.
func WriteLinesFile(path string, texts []string) error {
	var buf bytes.Buffer
	if err := WriteLines(&buf, texts); err != nil {
		return err
	}
	return atomic.WriteFile(path, &buf)
}
