package mozlog

import (
	"io"
	"os"

	"github.com/trickstertwo/xclock"
)

// Builder accumulates drain configuration and finalizes it into an immutable
// Drain. Create with New; methods may be called in any order before Build.
type Builder struct {
	w           io.Writer
	newlines    bool
	pretty      bool
	gcp         bool
	static      []*KV
	loggerName  string
	msgType     string
	hostname    string
	hasLogger   bool
	hasType     bool
	hasHostname bool
	clock       xclock.Clock
	pid         int
	hasPid      bool
}

// New starts a builder for a drain writing to w. Newlines default to on,
// pretty printing to off. GCP mode defaults from the MOZLOG_GCP environment
// variable, read once here: exactly "true" enables the GCP severity scale and
// field naming, any other value (including absent) keeps MozLog defaults.
func New(w io.Writer) *Builder {
	return &Builder{
		w:        w,
		newlines: true,
		gcp:      os.Getenv("MOZLOG_GCP") == "true",
	}
}

// Default builds a drain with default configuration.
func Default(w io.Writer) *Drain { return New(w).Build() }

// EnableGCP turns on GCP severity scale and field naming regardless of the
// environment toggle.
func (b *Builder) EnableGCP() *Builder {
	b.gcp = true
	return b
}

// SetNewlines controls writing a newline after every record.
func (b *Builder) SetNewlines(enabled bool) *Builder {
	b.newlines = enabled
	return b
}

// SetPretty controls pretty-printed output.
func (b *Builder) SetPretty(enabled bool) *Builder {
	b.pretty = enabled
	return b
}

// AddKV attaches a custom static attribute source, emitted with every record
// ahead of the standard envelope entries.
func (b *Builder) AddKV(kv *KV) *Builder {
	if kv != nil {
		b.static = append(b.static, kv)
	}
	return b
}

// LoggerName sets the envelope Logger entry.
func (b *Builder) LoggerName(name string) *Builder {
	b.loggerName = name
	b.hasLogger = true
	return b
}

// MsgType sets the envelope Type entry.
func (b *Builder) MsgType(t string) *Builder {
	b.msgType = t
	b.hasType = true
	return b
}

// Hostname sets the envelope Hostname entry.
func (b *Builder) Hostname(h string) *Builder {
	b.hostname = h
	b.hasHostname = true
	return b
}

// WithClock overrides the timestamp source. Defaults to xclock.Default() as
// captured at Build time.
func (b *Builder) WithClock(c xclock.Clock) *Builder {
	b.clock = c
	return b
}

// WithPid overrides the envelope Pid. Defaults to os.Getpid().
func (b *Builder) WithPid(pid int) *Builder {
	b.pid = pid
	b.hasPid = true
	return b
}

// Build finalizes the configuration. The returned Drain never observes later
// builder mutations.
func (b *Builder) Build() *Drain {
	head := make([]Field, 0, 3)
	if b.hasLogger {
		head = append(head, Str("Logger", b.loggerName))
	}
	if b.hasType {
		head = append(head, Str("Type", b.msgType))
	}
	if b.hasHostname {
		head = append(head, Str("Hostname", b.hostname))
	}
	clock := b.clock
	if clock == nil {
		clock = xclock.Default()
	}
	pid := b.pid
	if !b.hasPid {
		pid = os.Getpid()
	}
	return &Drain{
		w:        b.w,
		newlines: b.newlines,
		pretty:   b.pretty,
		gcp:      b.gcp,
		static:   append([]*KV(nil), b.static...),
		head:     head,
		clock:    clock,
		pid:      pid,
	}
}
