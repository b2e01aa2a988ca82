package logs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RunLog is a per-run log file on disk.
type RunLog struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Find lists files in dir matching pattern, newest first. A missing directory
// yields no logs.
func Find(dir, pattern string) ([]RunLog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log directory: %w", err)
	}
	var out []RunLog
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, err := filepath.Match(pattern, entry.Name()); err != nil || !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, RunLog{Path: filepath.Join(dir, entry.Name()), ModTime: info.ModTime(), Size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ModTime.Equal(out[j].ModTime) {
			// Names start with a UTC timestamp.
			return out[i].Path > out[j].Path
		}
		return out[i].ModTime.After(out[j].ModTime)
	})
	return out, nil
}

// FindRun returns the log holding events for runID.
func FindRun(dir, pattern, runID string) (RunLog, bool, error) {
	all, err := Find(dir, pattern)
	if err != nil {
		return RunLog{}, false, err
	}
	needle := fmt.Sprintf("%q:%q", "run_id", runID)
	for _, l := range all {
		data, err := os.ReadFile(l.Path)
		if err != nil {
			continue
		}
		if strings.Contains(string(data), needle) {
			return l, true, nil
		}
	}
	return RunLog{}, false, nil
}

// Event is one decoded JSON log line. Fields holds every attribute other than
// the standard ones.
type Event struct {
	Time      string
	Level     string
	Message   string
	EventType string
	StepIndex *int
	Action    string
	Fields    map[string]any
}

var standardKeys = map[string]bool{
	"ts": true, "level": true, "msg": true, "event_type": true,
	"step_index": true, "action": true, "run_id": true, "component": true, "source": true,
}

// ParseEvent decodes a JSON log line. It reports false for anything that is
// not a JSON object.
func ParseEvent(line string) (Event, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil || raw == nil {
		return Event{}, false
	}
	ev := Event{
		Time:      stringField(raw, "ts"),
		Level:     stringField(raw, "level"),
		Message:   stringField(raw, "msg"),
		EventType: stringField(raw, "event_type"),
		Action:    stringField(raw, "action"),
		Fields:    map[string]any{},
	}
	if n, ok := raw["step_index"].(float64); ok {
		idx := int(n)
		ev.StepIndex = &idx
	}
	for k, v := range raw {
		if !standardKeys[k] {
			ev.Fields[k] = v
		}
	}
	return ev, true
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

// String renders the event on one line: time, level, step, message, then the
// remaining fields sorted by key.
func (e Event) String() string {
	var b strings.Builder
	if t, err := time.Parse(time.RFC3339, e.Time); err == nil {
		b.WriteString(t.Local().Format(time.TimeOnly))
	} else {
		b.WriteString(e.Time)
	}
	fmt.Fprintf(&b, " %-5s", strings.ToUpper(e.Level))
	if e.StepIndex != nil {
		fmt.Fprintf(&b, " [%d %s]", *e.StepIndex, e.Action)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}
