package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune            // default ','
	HasHeader  bool            // if true, first row is skipped but sent to HeaderCh
	HeaderCh   chan<- []string // optional: receives the header row
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV reads a CSV file and sends rows to a channel.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			if first && opts.HasHeader {
				first = false
				if opts.HeaderCh != nil {
					select {
					case opts.HeaderCh <- record:
					case <-ctx.Done():
						errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled sending header")
						return
					}
				}
				continue
			}
			first = false

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV reads delimited text into a dataset. The delimiter is sniffed
// from the header line.
func ReadCSV(ctx context.Context, r io.Reader) (*survey.Dataset, error) {
	br := bufio.NewReader(r)
	peek, _ := br.Peek(4096)
	sample := string(peek)
	if strings.HasPrefix(sample, utf8BOM) {
		sample = sample[len(utf8BOM):]
		_, _ = br.Discard(len(utf8BOM))
	}
	if strings.TrimSpace(sample) == "" {
		return nil, eris.Wrap(ErrNoHeader, "csv: empty file")
	}

	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(ctx, br, CSVOptions{
		Delimiter:  SniffDelimiter(sample),
		HasHeader:  true,
		HeaderCh:   headerCh,
		LazyQuotes: true,
	})

	var rows [][]string
	for row := range rowCh {
		if blankRecord(row) {
			continue
		}
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return buildDataset(header, rows)
}

const utf8BOM = "\xef\xbb\xbf"

var delimiters = []rune{',', ';', '\t', '|'}

// SniffDelimiter picks the candidate delimiter that occurs most often in the
// first line of sample. Ties and no match fall back to a comma.
func SniffDelimiter(sample string) rune {
	line := sample
	if i := strings.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	best, bestN := ',', 0
	for _, d := range delimiters {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
