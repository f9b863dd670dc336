package corpus

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/CTAG07/Ebooks/pkg/textclean"
)

// ArchiveTextColumn is the CSV column holding the post body in a Twitter
// archive export.
const ArchiveTextColumn = "full_text"

// ErrNoTextColumn is returned when an archive has no ArchiveTextColumn header.
var ErrNoTextColumn = errors.New("archive has no " + ArchiveTextColumn + " column")

var (
	xzMagic   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	gzipMagic = []byte{0x1F, 0x8B}
)

// ArchiveResult is the outcome of reading an archive.
type ArchiveResult struct {
	Texts    []string `json:"-"`
	Tweets   int      `json:"tweets"`
	Retweets int      `json:"retweets_ignored"`
}

// ReadArchive reads the post texts from a Twitter archive CSV. Compressed
// input (xz or gzip) is detected from its magic bytes. When ignoreRetweets is
// set, rows starting with "RT @" are skipped and counted in Retweets. Texts are
// trimmed but otherwise left as written.
func ReadArchive(r io.Reader, ignoreRetweets bool) (ArchiveResult, error) {
	in, err := decompress(r)
	if err != nil {
		return ArchiveResult{}, err
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ArchiveResult{}, ErrNoTextColumn
		}
		return ArchiveResult{}, fmt.Errorf("could not read archive header: %w", err)
	}
	column := -1
	for i, name := range header {
		if strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) == ArchiveTextColumn {
			column = i
			break
		}
	}
	if column < 0 {
		return ArchiveResult{}, ErrNoTextColumn
	}

	var result ArchiveResult
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("could not read archive row %d: %w", result.Tweets+result.Retweets+1, err)
		}
		if column >= len(record) {
			continue
		}
		text := record[column]
		if ignoreRetweets && textclean.IsRetweet(text) {
			result.Retweets++
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			result.Texts = append(result.Texts, text)
			result.Tweets++
		}
	}
	return result, nil
}

func decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(xzMagic))

	switch {
	case bytes.HasPrefix(head, xzMagic):
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return xzr, nil
	case bytes.HasPrefix(head, gzipMagic):
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gzr, nil
	default:
		return br, nil
	}
}
