package requestdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"
)

// recordTypeRequest marks request lines in timer files.
const recordTypeRequest = "R"

// requestFieldCount is the number of CSV fields a request line carries.
const requestFieldCount = 13

// Reader reads request records from a CSV timer file. Non-request
// lines and malformed request lines are skipped; the skip count is
// available through Skipped.
type Reader struct {
	csv     *csv.Reader
	logger  *slog.Logger
	skipped int
}

// NewReader creates a Reader for the given timer file content. A nil
// logger suppresses per-line diagnostics.
func NewReader(r io.Reader, logger *slog.Logger) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // validated per line, request lines only
	cr.ReuseRecord = true

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Reader{csv: cr, logger: logger}
}

// Read returns the next request record, or io.EOF when the input is
// exhausted. Lines that are not well-formed request lines are skipped,
// never returned as errors.
func (r *Reader) Read() (*Request, error) {
	for {
		fields, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			// Structurally broken line (bare quotes etc.), skip it.
			r.skip(err.Error())
			continue
		}

		if len(fields) == 0 || fields[0] != recordTypeRequest {
			continue
		}

		req, err := parseRequest(fields)
		if err != nil {
			r.skip(err.Error())
			continue
		}

		return req, nil
	}
}

// Skipped returns the number of lines dropped because they could not
// be parsed as request records.
func (r *Reader) Skipped() int {
	return r.skipped
}

func (r *Reader) skip(reason string) {
	r.skipped++
	r.logger.Debug("skipping malformed timer line", "reason", reason)
}

func parseRequest(fields []string) (*Request, error) {
	if len(fields) < requestFieldCount {
		return nil, fmt.Errorf("request line has %d fields, want %d", len(fields), requestFieldCount)
	}

	ts, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", fields[2], err)
	}

	runtime, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid runtime %q: %w", fields[3], err)
	}

	failed, err := strconv.ParseBool(fields[4])
	if err != nil {
		return nil, fmt.Errorf("invalid failed flag %q: %w", fields[4], err)
	}

	bytesSent, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid bytes-sent %q: %w", fields[5], err)
	}

	bytesReceived, err := strconv.ParseInt(fields[6], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid bytes-received %q: %w", fields[6], err)
	}

	responseCode, err := strconv.Atoi(fields[7])
	if err != nil {
		return nil, fmt.Errorf("invalid response code %q: %w", fields[7], err)
	}

	return &Request{
		Name:            fields[1],
		Timestamp:       time.UnixMilli(ts),
		RunTime:         time.Duration(runtime) * time.Millisecond,
		Failed:          failed,
		BytesSent:       bytesSent,
		BytesReceived:   bytesReceived,
		ResponseCode:    responseCode,
		URL:             fields[8],
		ContentType:     fields[9],
		Method:          fields[10],
		AgentName:       fields[11],
		TransactionName: fields[12],
	}, nil
}
