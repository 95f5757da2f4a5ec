package stream

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pithecene-io/sift/log"
	"github.com/pithecene-io/sift/metrics"
	"github.com/pithecene-io/sift/types"
)

// DefaultHighWaterMark is the default read-ahead depth in chunks.
const DefaultHighWaterMark = 16

// Options configures one stream. Resolved once at construction; the
// zero value means unbounded items/bytes/time, fail-fast error handling
// and the default read-ahead.
type Options struct {
	// MaxItems stops the stream gracefully after N validated items.
	// Zero means unbounded.
	MaxItems int `yaml:"max_items"`
	// MaxBytes aborts the stream fatally once consumed source bytes
	// exceed it, regardless of ErrorMode. Zero means unbounded.
	MaxBytes ByteSize `yaml:"max_bytes"`
	// Timeout aborts the stream fatally once wall-clock time since
	// construction exceeds it, regardless of ErrorMode. Checked at
	// chunk boundaries only, never preemptively. Zero means unbounded.
	Timeout Duration `yaml:"timeout"`
	// ErrorMode governs per-item failures. Default ErrorModeFail.
	ErrorMode types.ErrorMode `yaml:"on_error"`
	// HighWaterMark is the advisory read-ahead depth in chunks.
	// Zero means DefaultHighWaterMark; negative disables read-ahead.
	HighWaterMark int `yaml:"high_water_mark"`

	// Logger receives pipeline diagnostics. Nil discards them.
	Logger *log.Logger `yaml:"-"`
	// Collector accumulates stream metrics. Nil disables collection.
	Collector *metrics.Collector `yaml:"-"`
}

// withDefaults resolves zero values to documented defaults.
func (o Options) withDefaults() Options {
	if o.ErrorMode == "" {
		o.ErrorMode = types.ErrorModeFail
	}
	if o.HighWaterMark == 0 {
		o.HighWaterMark = DefaultHighWaterMark
	}
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	return o
}

// ByteSize is a byte count parseable from a plain integer or a
// unit-suffixed string such as "100MB" or "1GB".
type ByteSize int64

// byteUnits maps case-normalized suffixes to multipliers.
// Binary multiples; "MB" and "MiB" are treated alike.
var byteUnits = []struct {
	suffix string
	mult   int64
}{
	{"TIB", 1 << 40}, {"TB", 1 << 40},
	{"GIB", 1 << 30}, {"GB", 1 << 30},
	{"MIB", 1 << 20}, {"MB", 1 << 20},
	{"KIB", 1 << 10}, {"KB", 1 << 10},
	{"B", 1},
}

// ParseByteSize parses a size like "512", "64KB", "100MB" or "1.5GiB".
func ParseByteSize(s string) (ByteSize, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty size")
	}
	upper := strings.ToUpper(trimmed)
	for _, unit := range byteUnits {
		num, ok := strings.CutSuffix(upper, unit.suffix)
		if !ok {
			continue
		}
		num = strings.TrimSpace(num)
		if num == "" {
			return 0, fmt.Errorf("invalid size %q: missing number", s)
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid size %q", s)
		}
		return ByteSize(f * float64(unit.mult)), nil
	}
	n, err := strconv.ParseInt(upper, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return ByteSize(n), nil
}

// UnmarshalYAML parses either a plain byte count or a size string.
func (b *ByteSize) UnmarshalYAML(unmarshal func(any) error) error {
	var n int64
	if err := unmarshal(&n); err == nil {
		if n < 0 {
			return fmt.Errorf("size must be >= 0, got %d", n)
		}
		*b = ByteSize(n)
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseByteSize(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b ByteSize) String() string {
	return strconv.FormatInt(int64(b), 10)
}

// Duration wraps time.Duration, parseable from plain milliseconds or a
// duration string such as "30s" or "5m".
type Duration struct {
	time.Duration
}

// ParseTimeout parses a timeout like "1500" (milliseconds) or "30s".
func ParseTimeout(s string) (Duration, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Duration{}, fmt.Errorf("empty duration")
	}
	if ms, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if ms < 0 {
			return Duration{}, fmt.Errorf("duration must be >= 0, got %d", ms)
		}
		return Duration{time.Duration(ms) * time.Millisecond}, nil
	}
	parsed, err := time.ParseDuration(trimmed)
	if err != nil || parsed < 0 {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}
	return Duration{parsed}, nil
}

// UnmarshalYAML parses either plain milliseconds or a duration string.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var ms int64
	if err := unmarshal(&ms); err == nil {
		if ms < 0 {
			return fmt.Errorf("duration must be >= 0, got %d", ms)
		}
		d.Duration = time.Duration(ms) * time.Millisecond
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseTimeout(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
