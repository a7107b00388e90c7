package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

type mediaRow struct {
	ID      string    `json:"id"`
	Caption string    `json:"caption"`
	Likes   int       `json:"like_count"`
	Taken   time.Time `json:"taken_at" table:"wide"`
	Raw     []byte    `json:"-" table:"-"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"table", FormatTable, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, false).(JSONFormatter); !ok {
		t.Error("json format should give JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML, false).(YAMLFormatter); !ok {
		t.Error("yaml format should give YAMLFormatter")
	}
	tf, ok := NewFormatter(FormatTable, true).(*TableFormatter)
	if !ok || !tf.Wide {
		t.Error("table format should give a wide TableFormatter")
	}
}

func TestTableFormatter_Slice(t *testing.T) {
	rows := []mediaRow{
		{ID: "1", Caption: "first", Likes: 3, Taken: time.Now()},
		{ID: "2", Likes: 0},
	}

	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, rows); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	for _, want := range []string{"ID", "CAPTION", "LIKE_COUNT"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("header %q missing %s", lines[0], want)
		}
	}
	if strings.Contains(lines[0], "TAKEN_AT") || strings.Contains(lines[0], "RAW") {
		t.Errorf("header %q shows hidden columns", lines[0])
	}
	if !strings.Contains(lines[2], "-") {
		t.Errorf("empty caption should render as '-': %q", lines[2])
	}

	buf.Reset()
	if err := (&TableFormatter{Wide: true, NoHeaders: true}).Format(&buf, rows); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "CAPTION") {
		t.Error("NoHeaders should drop the header line")
	}
}

func TestTableFormatter_StructAndMap(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, &mediaRow{ID: "9", Caption: "c"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "FIELD") || !strings.Contains(buf.String(), "caption") {
		t.Errorf("struct table:\n%s", buf.String())
	}

	buf.Reset()
	if err := (&TableFormatter{}).Format(&buf, map[string]int{"b": 2, "a": 1}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "a") {
		t.Errorf("map rows should be sorted:\n%s", buf.String())
	}

	buf.Reset()
	if err := (&TableFormatter{}).Format(&buf, 42); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "42" {
		t.Errorf("scalar fallback = %q", buf.String())
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("USERNAME", "ACCOUNT_ID")
	table.AddRow("alice", "42")

	if err := (YAMLFormatter{}).Format(&buf, table); err != nil {
		t.Fatal(err)
	}
	var got []map[string]string
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0]["username"] != "alice" || got[0]["account_id"] != "42" {
		t.Errorf("yaml records = %v", got)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Format(&buf, map[string]string{"k": "v"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"k\": \"v\"\n}\n" {
		t.Errorf("json = %q", buf.String())
	}
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(&buf, "media", 4)
	p.Add(2)
	if !strings.Contains(buf.String(), " 50% (2/4)") {
		t.Errorf("progress = %q", buf.String())
	}
	p.Add(5)
	p.Finish()
	if !strings.Contains(buf.String(), "100% (7/4)") || !strings.HasSuffix(buf.String(), "\n") {
		t.Errorf("progress = %q", buf.String())
	}

	buf.Reset()
	u := NewProgressBar(&buf, "media", 0)
	u.Add(3)
	if !strings.HasSuffix(buf.String(), "media 3") {
		t.Errorf("unknown total progress = %q", buf.String())
	}
}

func TestSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "logging in")
	s.interval = time.Millisecond
	s.Start()
	s.Update("resolving challenge")
	time.Sleep(10 * time.Millisecond)
	s.Success("logged in")
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "logging in") && !strings.Contains(out, "resolving challenge") {
		t.Errorf("spinner output = %q", out)
	}
	if !strings.HasSuffix(out, "✓ logged in\n") {
		t.Errorf("spinner should end with the success line: %q", out)
	}
}
