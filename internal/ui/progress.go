package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const barWidth = 40

// progress draws a single-line transfer bar on out.
type progress struct {
	Total   int64
	Current int64

	label      string
	out        io.Writer
	startTime  time.Time
	lastUpdate time.Time
}

func newProgress(label string, total int64, out io.Writer) progress {
	return progress{Total: total, label: label, out: out, startTime: time.Now()}
}

func (p *progress) add(n int) {
	if n <= 0 {
		return
	}
	p.Current += int64(n)
	// Only update every 100ms or when complete to avoid flashing
	if p.Current < p.Total && time.Since(p.lastUpdate) < 100*time.Millisecond {
		return
	}
	p.lastUpdate = time.Now()
	p.print()
}

func (p *progress) print() {
	if p.out == nil {
		return
	}

	duration := time.Since(p.startTime).Seconds()
	if duration == 0 {
		duration = 0.0001
	}
	speed := float64(p.Current) / (1024 * 1024) / duration // MB/s

	if p.Total <= 0 {
		fmt.Fprintf(p.out, "\r%s %d bytes (%.2f MB/s)", p.label, p.Current, speed)
		return
	}

	ratio := float64(p.Current) / float64(p.Total)
	if ratio > 1 {
		ratio = 1
	}
	completed := int(float64(barWidth) * ratio)
	bar := strings.Repeat("█", completed) + strings.Repeat("░", barWidth-completed)

	fmt.Fprintf(p.out, "\r%s [%s] %.1f%% (%.2f MB/s)", p.label, bar, ratio*100, speed)
	if p.Current >= p.Total {
		fmt.Fprintln(p.out)
	}
}

// ProgressReader reports the bytes read through it.
type ProgressReader struct {
	progress
	Reader io.Reader
}

// NewProgressReader wraps r; total may be zero when unknown. A nil out disables drawing.
func NewProgressReader(r io.Reader, total int64, out io.Writer) *ProgressReader {
	return &ProgressReader{progress: newProgress("Uploading...  ", total, out), Reader: r}
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	pr.add(n)
	return n, err
}

// ProgressWriter reports the bytes written through it.
type ProgressWriter struct {
	progress
	Writer io.Writer
}

func NewProgressWriter(w io.Writer, total int64, out io.Writer) *ProgressWriter {
	return &ProgressWriter{progress: newProgress("Downloading...", total, out), Writer: w}
}

func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.add(n)
	return n, err
}
