// Package loader reads user-supplied delimited text and geometry archives
// into in-memory tables, attempting a fixed ordered list of text encodings
// and guessing delimiters when none is declared.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
)

// encodingAttempt is one entry of the ordered decode policy list.
type encodingAttempt struct {
	name string
	enc  encoding.Encoding // nil means "bytes are already UTF-8"
}

// defaultEncodings is the fixed policy list: UTF-8 first, then the legacy
// 8-bit encodings Colombian hydromet exports actually ship in. The first
// attempt that decodes without loss wins; exhausting the list is an
// ErrUndecodable, never silently garbled text.
var defaultEncodings = []encodingAttempt{
	{name: "utf-8", enc: nil},
	{name: "iso-8859-1", enc: charmap.ISO8859_1},
	{name: "windows-1252", enc: charmap.Windows1252},
	{name: "iso-8859-15", enc: charmap.ISO8859_15},
}

// delimiterCandidates are scored against the header line when no delimiter
// is declared.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// Options control how a tabular source is read.
type Options struct {
	// Delimiter forces a field separator; zero means guess from the header.
	Delimiter rune
}

// ReadTable decodes and parses one delimited upload into a DataFrame with
// every column typed as string; typed parsing belongs to later stages.
// Failures are *domain.FileError wrapping ErrEmptyFile, ErrUndecodable, or
// the CSV parse error.
func ReadTable(name string, r io.Reader, opts Options) (dataframe.DataFrame, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return dataframe.DataFrame{}, &domain.FileError{Name: name, Err: fmt.Errorf("read: %w", err)}
	}
	return ParseTable(name, raw, opts)
}

// ParseTable is ReadTable over bytes already in memory, so callers holding
// cached upload content can skip the copy.
func ParseTable(name string, raw []byte, opts Options) (dataframe.DataFrame, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return dataframe.DataFrame{}, &domain.FileError{Name: name, Err: domain.ErrEmptyFile}
	}

	text, err := decode(raw)
	if err != nil {
		return dataframe.DataFrame{}, &domain.FileError{Name: name, Err: err}
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = GuessDelimiter(text)
	}

	df := dataframe.ReadCSV(strings.NewReader(text),
		dataframe.WithDelimiter(delim),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, &domain.FileError{Name: name, Err: fmt.Errorf("malformed rows: %w", df.Err)}
	}
	return df, nil
}

// decode walks the encoding policy list and returns the first lossless
// decode. UTF-8 input (with or without BOM) short-circuits; legacy decoders
// are rejected when they have to emit replacement runes.
func decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	for _, attempt := range defaultEncodings {
		if attempt.enc == nil {
			if utf8.Valid(raw) {
				return string(raw), nil
			}
			continue
		}
		decoded, err := attempt.enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		if bytes.ContainsRune(decoded, utf8.RuneError) {
			continue
		}
		return string(decoded), nil
	}
	return "", domain.ErrUndecodable
}

// GuessDelimiter picks the candidate that splits the header line into the
// most fields, counting occurrences outside double quotes. Ties and the
// no-separator case fall back to comma.
func GuessDelimiter(text string) rune {
	header := text
	if i := strings.IndexByte(header, '\n'); i >= 0 {
		header = header[:i]
	}

	best := ','
	bestCount := 0
	for _, cand := range delimiterCandidates {
		count := 0
		inQuotes := false
		for _, r := range header {
			switch {
			case r == '"':
				inQuotes = !inQuotes
			case r == cand && !inQuotes:
				count++
			}
		}
		if count > bestCount {
			best = cand
			bestCount = count
		}
	}
	return best
}
