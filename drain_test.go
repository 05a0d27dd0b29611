package mozlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trickstertwo/xclock/adapter/frozen"
	"github.com/valyala/fastjson"
)

// Fixed instant matching the wire-format example: 1234567890000000000 ns.
var testAt = time.Unix(0, 1234567890000000000)

func testDrain(w *bytes.Buffer, mutate ...func(*Builder)) *Drain {
	b := New(w).
		LoggerName("svc").
		WithClock(frozen.New(testAt)).
		WithPid(42)
	for _, m := range mutate {
		m(b)
	}
	return b.Build()
}

type failWriter struct {
	buf    bytes.Buffer
	failOn int // 1-based write index to start failing at
	writes int
}

func (w *failWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes >= w.failOn {
		return 0, errors.New("sink closed")
	}
	return w.buf.Write(p)
}

func TestLogMozLogExample(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := testDrain(&buf)

	err := d.Log(Record{Level: LevelInfo, Msg: "started", Fields: []Field{Int("port", 8080)}}, nil)
	require.NoError(t, err)

	want := `{"Logger":"svc","Timestamp":1234567890000000000,"Pid":42,"Severity":6,"Fields":{"msg":"started","port":8080}}` + "\n"
	assert.Equal(t, want, buf.String())
}

func TestEnvelopeHeadOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := testDrain(&buf, func(b *Builder) {
		b.MsgType("request.summary").Hostname("host-1")
	})
	require.NoError(t, d.Log(Record{Level: LevelWarning, Msg: "m"}, nil))

	v, err := fastjson.ParseBytes(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	require.NoError(t, err)

	var keys []string
	obj, err := v.Object()
	require.NoError(t, err)
	obj.Visit(func(key []byte, _ *fastjson.Value) { keys = append(keys, string(key)) })
	assert.Equal(t, []string{"Logger", "Type", "Hostname", "Timestamp", "Pid", "Severity", "Fields"}, keys)
	assert.Equal(t, "request.summary", string(v.GetStringBytes("Type")))
	assert.Equal(t, "host-1", string(v.GetStringBytes("Hostname")))
	assert.Equal(t, 4, v.GetInt("Severity"))
}

func TestFieldsOrderAndDuplicates(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := testDrain(&buf)

	root := NewKV(Str("a", "ctx-1"))
	child := root.With(Str("b", "ctx-2"), Str("a", "ctx-3"))
	rec := Record{Level: LevelInfo, Msg: "m", Fields: []Field{Int("port", 8080), Str("a", "call")}}
	require.NoError(t, d.Log(rec, child))

	v, err := fastjson.ParseBytes(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	require.NoError(t, err)
	fields, err := v.Get("Fields").Object()
	require.NoError(t, err)

	var keys []string
	fields.Visit(func(key []byte, _ *fastjson.Value) { keys = append(keys, string(key)) })

	// msg + N pairs: logger chain in attachment order, then call-site pairs,
	// duplicates preserved.
	assert.Equal(t, []string{"msg", "a", "b", "a", "port", "a"}, keys)
	assert.Equal(t, fields.Len(), child.Len()+len(rec.Fields)+1)
}

func TestSpliceProducesValidJSON(t *testing.T) {
	t.Parallel()

	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer
		d := testDrain(&buf, func(b *Builder) { b.SetPretty(pretty) })
		rec := Record{Level: LevelError, Msg: "boom", Fields: []Field{Str("detail", "d")}}
		require.NoError(t, d.Log(rec, NewKV(Bool("flag", true))))

		line := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
		require.True(t, json.Valid(line), "pretty=%v output: %s", pretty, line)

		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		assert.ElementsMatch(t, []string{"Logger", "Timestamp", "Pid", "Severity", "Fields"}, mapKeys(m))
		assert.Equal(t, map[string]any{
			"msg":    "boom",
			"flag":   true,
			"detail": "d",
		}, m["Fields"])
	}
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestIdempotentConfiguration(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	rec := Record{Level: LevelDebug, Msg: "m", Fields: []Field{Float64("ratio", 0.5)}}
	kv := NewKV(Str("env", "test"))

	require.NoError(t, testDrain(&a).Log(rec, kv))
	require.NoError(t, testDrain(&b).Log(rec, kv))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestGCPEnvToggle(t *testing.T) {
	var buf bytes.Buffer

	t.Setenv("MOZLOG_GCP", "true")
	d := testDrain(&buf)
	require.NoError(t, d.Log(Record{Level: LevelInfo, Msg: "m"}, nil))

	v, err := fastjson.ParseBytes(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	require.NoError(t, err)
	assert.Equal(t, 200, v.GetInt("severity"))
	assert.False(t, v.Exists("Severity"))
}

func TestGCPEnvToggleExactMatchOnly(t *testing.T) {
	for _, val := range []string{"TRUE", "1", "yes", ""} {
		t.Setenv("MOZLOG_GCP", val)
		var buf bytes.Buffer
		require.NoError(t, testDrain(&buf).Log(Record{Level: LevelInfo, Msg: "m"}, nil))

		v, err := fastjson.ParseBytes(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
		require.NoError(t, err)
		assert.Equal(t, 6, v.GetInt("Severity"), "MOZLOG_GCP=%q", val)
		assert.False(t, v.Exists("severity"), "MOZLOG_GCP=%q", val)
	}
}

func TestEnableGCPOverride(t *testing.T) {
	t.Setenv("MOZLOG_GCP", "false")
	var buf bytes.Buffer
	d := testDrain(&buf, func(b *Builder) { b.EnableGCP() })
	require.NoError(t, d.Log(Record{Level: LevelCritical, Msg: "m"}, nil))

	v, err := fastjson.ParseBytes(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	require.NoError(t, err)
	assert.Equal(t, 600, v.GetInt("severity"))
}

func TestLazyEvaluatedOncePerCall(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := testDrain(&buf)

	calls := 0
	lazy := LazyStr("n", func() string {
		calls++
		return fmt.Sprintf("call-%d", calls)
	})

	require.NoError(t, d.Log(Record{Level: LevelInfo, Msg: "first", Fields: []Field{lazy}}, nil))
	require.NoError(t, d.Log(Record{Level: LevelInfo, Msg: "second", Fields: []Field{lazy}}, nil))
	assert.Equal(t, 2, calls)

	lines := bytes.Split(bytes.TrimSuffix(buf.Bytes(), []byte("\n")), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"n":"call-1"`)
	assert.Contains(t, string(lines[1]), `"n":"call-2"`)
	assert.NotContains(t, string(lines[1]), "call-1")
}

func TestScratchContentDoesNotLeakAcrossCalls(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := testDrain(&buf)

	long := Stringf("v", "%s", bytes.Repeat([]byte("x"), 512))
	short := Stringf("v", "%s", "ok")

	require.NoError(t, d.Log(Record{Level: LevelInfo, Msg: "a", Fields: []Field{long}}, nil))
	buf.Reset()
	require.NoError(t, d.Log(Record{Level: LevelInfo, Msg: "b", Fields: []Field{short}}, nil))

	assert.Contains(t, buf.String(), `"v":"ok"`)
	assert.NotContains(t, buf.String(), "x")
}

func TestSinkFailureSurfacesIOError(t *testing.T) {
	t.Parallel()

	w := &failWriter{failOn: 1}
	d := New(w).WithClock(frozen.New(testAt)).WithPid(42).Build()

	err := d.Log(Record{Level: LevelInfo, Msg: "m"}, nil)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Zero(t, w.buf.Len(), "nothing may reach the sink after the failure point")
	assert.Equal(t, uint64(1), d.Stats().WriteErrors)
}

func TestNewlineWriteFailure(t *testing.T) {
	t.Parallel()

	w := &failWriter{failOn: 2}
	d := New(w).WithClock(frozen.New(testAt)).WithPid(42).Build()

	err := d.Log(Record{Level: LevelInfo, Msg: "m"}, nil)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	// The payload write succeeded; the newline write did not, and nothing
	// was written after it.
	assert.True(t, json.Valid(w.buf.Bytes()))
	assert.Equal(t, 2, w.writes)
}

func TestEncodeFailureWritesNothing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := testDrain(&buf)

	err := d.Log(Record{Level: LevelInfo, Msg: "m", Fields: []Field{Str("bad", "\xff")}}, nil)
	var encErr *EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.Zero(t, buf.Len())
	assert.Equal(t, uint64(1), d.Stats().EncodeErrors)
	assert.Zero(t, d.Stats().Records)
}

func TestSpliceMatchesTextSubstitution(t *testing.T) {
	t.Parallel()

	rec := Record{Level: LevelInfo, Msg: "started", Fields: []Field{Int("port", 8080)}}
	kv := NewKV(Str("env", "test"))

	for _, pretty := range []bool{false, true} {
		d := testDrain(&bytes.Buffer{}, func(b *Builder) { b.SetPretty(pretty) })

		payload := getBuf()
		slot, err := d.encodeEnvelope(payload, rec.Level)
		require.NoError(t, err)
		fields := getBuf()
		require.NoError(t, d.encodeFields(fields, rec, kv))

		out := getBuf()
		spliceFields(out, payload.b, fields.b, slot)

		// The oracle: textual substitution of the quoted token, plus the
		// closing brace the substitution loses.
		want := bytes.Replace(payload.b, []byte(`"`+fieldsPlaceholder+`"`), fields.b, 1)
		want = append(want, '}')
		assert.Equal(t, string(want), string(out.b), "pretty=%v", pretty)

		putBuf(out)
		putBuf(fields)
		putBuf(payload)
	}
}

func TestPrettyOutputBytes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := testDrain(&buf, func(b *Builder) { b.SetPretty(true) })
	require.NoError(t, d.Log(Record{Level: LevelInfo, Msg: "started", Fields: []Field{Int("port", 8080)}}, nil))

	want := "{\n  \"Logger\": \"svc\",\n  \"Timestamp\": 1234567890000000000,\n  \"Pid\": 42," +
		"\n  \"Severity\": 6,\n  \"Fields\": {\n  \"msg\": \"started\",\n  \"port\": 8080\n}}\n"
	assert.Equal(t, want, buf.String())
	assert.True(t, json.Valid(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))))
}

func TestNewlinesDisabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := testDrain(&buf, func(b *Builder) { b.SetNewlines(false) })
	require.NoError(t, d.Log(Record{Level: LevelInfo, Msg: "m"}, nil))
	assert.False(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
}

func TestCustomStaticSources(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renders := 0
	d := testDrain(&buf, func(b *Builder) {
		b.AddKV(NewKV(
			Str("version", "1.2.3"),
			LazyStr("seq", func() string {
				renders++
				return fmt.Sprintf("%d", renders)
			}),
		))
	})

	require.NoError(t, d.Log(Record{Level: LevelInfo, Msg: "m"}, nil))
	require.NoError(t, d.Log(Record{Level: LevelInfo, Msg: "m"}, nil))
	assert.Equal(t, 2, renders, "static lazy values are re-evaluated per record")

	lines := bytes.Split(bytes.TrimSuffix(buf.Bytes(), []byte("\n")), []byte("\n"))
	v, err := fastjson.ParseBytes(lines[0])
	require.NoError(t, err)

	var keys []string
	obj, err := v.Object()
	require.NoError(t, err)
	obj.Visit(func(key []byte, _ *fastjson.Value) { keys = append(keys, string(key)) })

	// Custom sources precede the standard envelope entries.
	assert.Equal(t, []string{"version", "seq", "Logger", "Timestamp", "Pid", "Severity", "Fields"}, keys)
}

func TestStatsCounters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := testDrain(&buf)
	require.NoError(t, d.Log(Record{Level: LevelInfo, Msg: "m"}, nil))
	require.NoError(t, d.Log(Record{Level: LevelInfo, Msg: "m"}, nil))

	st := d.Stats()
	assert.Equal(t, uint64(2), st.Records)
	assert.Zero(t, st.EncodeErrors)
	assert.Zero(t, st.WriteErrors)

	d.ResetStats()
	assert.Zero(t, d.Stats().Records)
}

func TestConcurrentLogsDoNotInterleave(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	d := testDrain(&buf)
	kv := NewKV(Str("worker", "shared"))

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_ = d.Log(Record{Level: LevelInfo, Msg: "m", Fields: []Field{Int("i", i)}}, kv)
		}(i)
	}
	wg.Wait()

	lines := bytes.Split(bytes.TrimSuffix(buf.Bytes(), []byte("\n")), []byte("\n"))
	require.Len(t, lines, n)
	for _, line := range lines {
		assert.True(t, json.Valid(line), "corrupted line: %s", line)
	}
}
