package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// memAppender - собирает записи в память для проверок
type memAppender struct {
	mu      sync.Mutex
	entries []*Entry
	failErr error
	closed  bool
}

func (m *memAppender) Append(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAppender) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memAppender) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// TestEntry_Builder проверяет сборку записи через builder-методы
func TestEntry_Builder(t *testing.T) {
	entry := NewEntry("postgres", "createData").
		WithTable("users").
		WithStatement(`INSERT INTO "users" ("id") VALUES ($1)`, 1).
		WithDuration(5 * time.Millisecond)

	if entry.Status != StatusSuccess {
		t.Errorf("Expected success status, got %s", entry.Status)
	}
	if entry.ArgCount != 1 {
		t.Errorf("Expected arg count 1, got %d", entry.ArgCount)
	}

	entry.WithError(errors.New("boom"))
	if entry.Status != StatusFailure || entry.ErrorMessage != "boom" {
		t.Errorf("Error not reflected: %s / %s", entry.Status, entry.ErrorMessage)
	}

	// WithError(nil) не сбрасывает статус
	entry.WithError(nil)
	if entry.Status != StatusFailure {
		t.Error("WithError(nil) reset failure status")
	}
}

// TestTrail_NilSafe проверяет что nil журнал безопасен
func TestTrail_NilSafe(t *testing.T) {
	var trail *Trail
	trail.Record(context.Background(), NewEntry("postgres", "ping"))
	if err := trail.Close(); err != nil {
		t.Fatalf("Close on nil trail failed: %v", err)
	}
}

// TestTrail_Sync проверяет синхронную запись
func TestTrail_Sync(t *testing.T) {
	mem := &memAppender{}
	trail := NewTrail(TrailConfig{}, mem)

	trail.Record(context.Background(), NewEntry("postgres", "createTable"))
	trail.Record(context.Background(), NewEntry("postgres", "deleteTable"))

	if mem.count() != 2 {
		t.Errorf("Expected 2 entries, got %d", mem.count())
	}
	if err := trail.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !mem.closed {
		t.Error("Appender not closed")
	}
}

// TestTrail_Async проверяет что асинхронный режим дописывает буфер при Close
func TestTrail_Async(t *testing.T) {
	mem := &memAppender{}
	trail := NewTrail(TrailConfig{AsyncMode: true, BufferSize: 16}, mem)

	for i := 0; i < 10; i++ {
		trail.Record(context.Background(), NewEntry("postgres", "readData"))
	}
	if err := trail.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if mem.count() != 10 {
		t.Errorf("Expected 10 entries after flush, got %d", mem.count())
	}

	// Record после Close не паникует
	trail.Record(context.Background(), NewEntry("postgres", "readData"))
}

// TestTrail_ConcurrentRecordClose проверяет что Record гонко-безопасен
// относительно Close: запись в закрывающийся журнал молча отбрасывается,
// паники отправки в закрытый канал быть не должно
func TestTrail_ConcurrentRecordClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		mem := &memAppender{}
		trail := NewTrail(TrailConfig{AsyncMode: true, BufferSize: 4}, mem)

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					trail.Record(context.Background(), NewEntry("postgres", "readData"))
				}
			}()
		}

		if err := trail.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		wg.Wait()
	}
}

// TestTrail_OnError проверяет доставку ошибок appender-а в callback
func TestTrail_OnError(t *testing.T) {
	var got error
	mem := &memAppender{failErr: errors.New("disk full")}
	trail := NewTrail(TrailConfig{OnError: func(err error) { got = err }}, mem)

	trail.Record(context.Background(), NewEntry("postgres", "createData"))
	if got == nil || got.Error() != "disk full" {
		t.Errorf("Expected appender error in callback, got %v", got)
	}
}

// TestMultiAppender проверяет веерную запись во все appenders
func TestMultiAppender(t *testing.T) {
	a, b := &memAppender{}, &memAppender{}
	multi := NewMultiAppender(a, b)

	if err := multi.Append(context.Background(), NewEntry("postgres", "ping")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("Expected entry in both appenders, got %d/%d", a.count(), b.count())
	}
	if err := multi.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("Not all appenders closed")
	}
}

// TestFileAppender проверяет формат JSON lines
func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "trail.jsonl")

	fa, err := NewFileAppender(path)
	if err != nil {
		t.Fatalf("NewFileAppender failed: %v", err)
	}

	entries := []*Entry{
		NewEntry("postgres", "createData").WithTable("users").WithStatement("INSERT ...", 4),
		NewEntry("postgres", "deleteData").WithError(errors.New("timeout")),
	}
	for _, entry := range entries {
		if err := fa.Append(context.Background(), entry); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := fa.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open audit file: %v", err)
	}
	defer file.Close()

	var lines []Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("Invalid JSON line: %v", err)
		}
		lines = append(lines, e)
	}

	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0].Operation != "createData" || lines[0].ArgCount != 4 {
		t.Errorf("First entry corrupted: %+v", lines[0])
	}
	if lines[1].Status != StatusFailure || lines[1].ErrorMessage != "timeout" {
		t.Errorf("Second entry corrupted: %+v", lines[1])
	}
}
