package queue

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/gammazero/deque"

	"github.com/flowmesh/runtime/payload"
	"github.com/flowmesh/runtime/token"
)

var fileMagic = [4]byte{'F', 'L', 'W', 'Q'}

const (
	fileVersion     = uint32(1)
	fileHeaderSize  = 4 + 4 + 8 // magic + version + head offset
	recordHeaderLen = 4 + 8 + 4 + 4 + 16 + 8
)

// DurableQueue is a file-backed implementation of Interface. It keeps an
// in-memory mirror of every still-live record so pop never has to reopen or
// re-scan the file, and persists each push before it is considered
// successful: the queue's failure contract ("failure to persist a push
// fails the push") only holds if the write lands on disk before Push
// returns.
type DurableQueue struct {
	name     string
	capacity int
	schemaID string

	compactionThreshold int64

	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    deque.Deque[payload.Payload]
	closed   bool

	file          *os.File
	path          string
	headOffset    int64
	unusedPrefix  int64
}

// OpenDurable opens or creates a durable queue backed by path. If path
// already contains a well-formed file it loads records from the recorded
// head offset, up to capacity. An older, magic-less file (anything that
// doesn't start with the current header) is upgraded in place: its entire
// contents are treated as a single already-formatted record stream and
// rewritten behind the current header.
func OpenDurable(name string, capacity int, schemaID, path string, compactionThreshold int64) (*DurableQueue, error) {
	if compactionThreshold <= 0 {
		compactionThreshold = 4 * 1024 * 1024
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("queue: open durable file %q: %w", path, err)
	}

	q := &DurableQueue{
		name:                name,
		capacity:            capacity,
		schemaID:            schemaID,
		compactionThreshold: compactionThreshold,
		file:                f,
		path:                path,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)

	if err := q.loadOrInit(); err != nil {
		f.Close()
		return nil, err
	}
	return q, nil
}

func (q *DurableQueue) Name() string     { return q.name }
func (q *DurableQueue) SchemaID() string { return q.schemaID }
func (q *DurableQueue) Capacity() int    { return q.capacity }

func (q *DurableQueue) loadOrInit() error {
	info, err := q.file.Stat()
	if err != nil {
		return fmt.Errorf("queue: stat durable file: %w", err)
	}

	if info.Size() == 0 {
		return q.writeFreshHeader()
	}

	header := make([]byte, fileHeaderSize)
	if _, err := q.file.ReadAt(header, 0); err != nil {
		return fmt.Errorf("queue: read durable header: %w", err)
	}

	if [4]byte(header[:4]) != fileMagic {
		return q.upgradeLegacyFile()
	}

	q.headOffset = int64(binary.LittleEndian.Uint64(header[8:16]))
	return q.loadRecordsFrom(q.headOffset, info.Size())
}

func (q *DurableQueue) writeFreshHeader() error {
	q.headOffset = fileHeaderSize
	buf := make([]byte, fileHeaderSize)
	copy(buf[:4], fileMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], fileVersion)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(q.headOffset))
	if _, err := q.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("queue: write durable header: %w", err)
	}
	return q.file.Sync()
}

// upgradeLegacyFile treats the whole existing file as a magic-less record
// stream starting at offset 0 and rewrites it behind a fresh header.
func (q *DurableQueue) upgradeLegacyFile() error {
	legacy, err := os.ReadFile(q.path)
	if err != nil {
		return fmt.Errorf("queue: read legacy durable file: %w", err)
	}

	tmpPath := q.path + ".upgrade.tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("queue: create upgrade temp file: %w", err)
	}

	header := make([]byte, fileHeaderSize)
	copy(header[:4], fileMagic[:])
	binary.LittleEndian.PutUint32(header[4:8], fileVersion)
	binary.LittleEndian.PutUint64(header[8:16], uint64(fileHeaderSize))
	if _, err := tmp.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("queue: write upgrade header: %w", err)
	}
	if _, err := tmp.Write(legacy); err != nil {
		tmp.Close()
		return fmt.Errorf("queue: write upgraded records: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	if err := os.Rename(tmpPath, q.path); err != nil {
		return fmt.Errorf("queue: rename upgraded durable file: %w", err)
	}

	q.file.Close()
	f, err := os.OpenFile(q.path, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	q.file = f
	q.headOffset = fileHeaderSize

	info, err := q.file.Stat()
	if err != nil {
		return err
	}
	return q.loadRecordsFrom(q.headOffset, info.Size())
}

func (q *DurableQueue) loadRecordsFrom(offset, end int64) error {
	for offset < end && q.items.Len() < q.capacity {
		rec, next, err := q.readRecordAt(offset)
		if err != nil {
			return err
		}
		q.items.PushBack(rec)
		offset = next
	}
	return nil
}

func (q *DurableQueue) readRecordAt(offset int64) (payload.Payload, int64, error) {
	hdr := make([]byte, recordHeaderLen)
	if _, err := q.file.ReadAt(hdr, offset); err != nil {
		return payload.Payload{}, 0, fmt.Errorf("queue: read record header: %w", err)
	}

	size := binary.LittleEndian.Uint32(hdr[0:4])
	ts := int64(binary.LittleEndian.Uint64(hdr[4:12]))
	flags := binary.LittleEndian.Uint32(hdr[12:16])
	schemaLen := binary.LittleEndian.Uint32(hdr[16:20])
	var traceID [16]byte
	copy(traceID[:], hdr[20:36])
	var spanID [8]byte
	copy(spanID[:], hdr[36:44])

	rest := make([]byte, int64(schemaLen)+int64(size))
	if _, err := q.file.ReadAt(rest, offset+recordHeaderLen); err != nil {
		return payload.Payload{}, 0, fmt.Errorf("queue: read record body: %w", err)
	}

	schemaID := string(rest[:schemaLen])
	buf := make([]byte, size)
	copy(buf, rest[schemaLen:])

	meta := payload.Meta{
		EnqueueTSNano: ts,
		TraceID:       traceID,
		SpanID:        spanID,
		Flags:         flags,
		SchemaID:      schemaID,
	}
	next := offset + recordHeaderLen + int64(schemaLen) + int64(size)
	return payload.New(buf, meta), next, nil
}

func encodeRecord(item payload.Payload) []byte {
	meta := item.Meta()
	schemaBytes := []byte(meta.SchemaID)
	body := item.Bytes()

	buf := make([]byte, recordHeaderLen+len(schemaBytes)+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(body)))
	binary.LittleEndian.PutUint64(buf[4:12], uint64(meta.EnqueueTSNano))
	binary.LittleEndian.PutUint32(buf[12:16], meta.Flags)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(schemaBytes)))
	copy(buf[20:36], meta.TraceID[:])
	copy(buf[36:44], meta.SpanID[:])
	copy(buf[recordHeaderLen:], schemaBytes)
	copy(buf[recordHeaderLen+len(schemaBytes):], body)
	return buf
}

func recordSize(item payload.Payload) int64 {
	return int64(recordHeaderLen + len(item.Meta().SchemaID) + item.Size())
}

// Push persists item to disk (fsync included) before appending it to the
// in-memory mirror. A persistence failure fails the push.
func (q *DurableQueue) Push(item payload.Payload, tok *token.Token) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && !tok.StopRequested() && q.items.Len() >= q.capacity {
		q.notFull.Wait()
	}
	if q.closed || tok.StopRequested() || q.items.Len() >= q.capacity {
		return false
	}

	if err := q.appendLocked(item); err != nil {
		return false
	}

	q.items.PushBack(item)
	q.notEmpty.Signal()
	return true
}

func (q *DurableQueue) appendLocked(item payload.Payload) error {
	info, err := q.file.Stat()
	if err != nil {
		return err
	}
	buf := encodeRecord(item)
	if _, err := q.file.WriteAt(buf, info.Size()); err != nil {
		return err
	}
	return q.file.Sync()
}

// Pop removes the front item from the in-memory mirror, advances the
// recorded head offset, and compacts the file once the unused prefix
// crosses the configured threshold.
func (q *DurableQueue) Pop(tok *token.Token) (payload.Payload, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && !tok.StopRequested() && q.items.Len() == 0 {
		q.notEmpty.Wait()
	}
	if q.items.Len() == 0 {
		return payload.Payload{}, false
	}

	item := q.items.PopFront()
	q.headOffset += recordSize(item)
	q.unusedPrefix += recordSize(item)
	q.notFull.Signal()

	if q.unusedPrefix >= q.compactionThreshold {
		_ = q.compactLocked()
	} else {
		_ = q.writeHeadOffsetLocked()
	}

	return item, true
}

func (q *DurableQueue) writeHeadOffsetLocked() error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(q.headOffset))
	if _, err := q.file.WriteAt(buf, 8); err != nil {
		return err
	}
	return q.file.Sync()
}

// compactLocked rewrites the file from scratch using only the items still
// mirrored in memory (every record already popped is gone by definition).
// The in-memory mirror means push/pop never observe an intermediate empty
// state: the rewrite happens entirely behind the queue mutex, and readers
// only ever see the in-memory deque, never the file directly.
func (q *DurableQueue) compactLocked() error {
	tmpPath := q.path + ".compact.tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	header := make([]byte, fileHeaderSize)
	copy(header[:4], fileMagic[:])
	binary.LittleEndian.PutUint32(header[4:8], fileVersion)
	binary.LittleEndian.PutUint64(header[8:16], uint64(fileHeaderSize))
	if _, err := tmp.Write(header); err != nil {
		tmp.Close()
		return err
	}

	for i := 0; i < q.items.Len(); i++ {
		if _, err := tmp.Write(encodeRecord(q.items.At(i))); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	if err := os.Rename(tmpPath, q.path); err != nil {
		return err
	}

	q.file.Close()
	f, err := os.OpenFile(q.path, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	q.file = f
	q.headOffset = fileHeaderSize
	q.unusedPrefix = 0
	return nil
}

// Close marks the queue closed, wakes every blocked push/pop, and closes
// the backing file. Idempotent.
func (q *DurableQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	q.file.Close()
}

func (q *DurableQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *DurableQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// ParseSize parses a human-readable size like "4Mi", "512Ki", or a bare
// byte count, used for the durable queue's compaction threshold.
func ParseSize(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("queue: empty size string")
	}

	multiplier := int64(1)
	numEnd := len(s)

	suffixes := []struct {
		suffix string
		mult   int64
	}{
		{"Ki", 1024},
		{"Mi", 1024 * 1024},
		{"Gi", 1024 * 1024 * 1024},
		{"Ti", 1024 * 1024 * 1024 * 1024},
		{"k", 1000},
		{"m", 1000 * 1000},
		{"g", 1000 * 1000 * 1000},
	}
	for _, suf := range suffixes {
		if len(s) > len(suf.suffix) && s[len(s)-len(suf.suffix):] == suf.suffix {
			multiplier = suf.mult
			numEnd = len(s) - len(suf.suffix)
			break
		}
	}

	var value int64
	if _, err := fmt.Sscanf(s[:numEnd], "%d", &value); err != nil {
		return 0, fmt.Errorf("queue: invalid size %q: %w", s, err)
	}
	return value * multiplier, nil
}
