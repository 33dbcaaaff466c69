package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/surf-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/surf-report-service/internal/domain"
)

// scriptedSource replays events, then cancels the run.
type scriptedSource struct {
	events []event
	cancel context.CancelFunc
}

type event struct {
	report domain.SurfReport
	err    error
}

func (s *scriptedSource) ReadReport(ctx context.Context) (domain.SurfReport, error) {
	if len(s.events) == 0 {
		s.cancel()
		return domain.SurfReport{}, ctx.Err()
	}
	e := s.events[0]
	s.events = s.events[1:]
	return e.report, e.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lines(t *testing.T, buf *bytes.Buffer) []domain.SurfReport {
	t.Helper()
	var out []domain.SurfReport
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var r domain.SurfReport
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		out = append(out, r)
	}
	return out
}

func TestFollow_PrintsAndFilters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &scriptedSource{cancel: cancel, events: []event{
		{report: domain.SurfReport{Date: "2024-06-01", Location: "ocean-beach", Rating: 7}},
		{report: domain.SurfReport{Date: "2024-06-01", Location: "steamer-lane", Rating: 5}},
		{err: fmt.Errorf("%w at offset 3: bad json", kafka.ErrMalformedEvent)},
		{report: domain.SurfReport{Date: "2024-06-02", Location: "ocean-beach", Rating: 4}},
	}}

	var buf bytes.Buffer
	require.NoError(t, follow(ctx, src, "ocean-beach", &buf, discardLogger()))

	got := lines(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, 7, got[0].Rating)
	assert.Equal(t, "2024-06-02", got[1].Date)
}

func TestFollow_ReadError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &scriptedSource{cancel: cancel, events: []event{
		{err: errors.New("broker unreachable")},
	}}

	err := follow(ctx, src, "", io.Discard, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")
}
