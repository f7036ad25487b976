package transport

import "sync"

// Memory is an in-process [Transport] backed by a map of feature reports,
// used to unit test drivers and the commit engine without real hardware:
// a fully in-memory stand-in for the real platform transport.
type Memory struct {
	mu       sync.Mutex
	opened   bool
	identity Identity
	reports  map[uint8][]byte
	declared map[uint8]bool

	// Writes records every SetFeature call in order, for assertions in
	// commit-engine tests (e.g. "zero writes for a clean commit").
	Writes []MemoryWrite
}

// MemoryWrite records one SetFeature call observed by a Memory transport.
type MemoryWrite struct {
	ReportID uint8
	Data     []byte
}

// NewMemory constructs a Memory transport that reports the given identity
// and has the given report IDs declared as present.
func NewMemory(identity Identity, declaredReports ...uint8) *Memory {
	declared := make(map[uint8]bool, len(declaredReports))
	for _, id := range declaredReports {
		declared[id] = true
	}
	return &Memory{
		identity: identity,
		reports:  make(map[uint8][]byte),
		declared: declared,
	}
}

// Seed pre-loads the feature report a subsequent GetFeature(reportID, ...)
// will return, simulating the hardware's current state during probe.
func (m *Memory) Seed(reportID uint8, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.reports[reportID] = cp
}

// Open implements [Transport.Open]. The open callback is not invoked;
// Memory has no real file descriptor.
func (m *Memory) Open(path string, open OpenRestricted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = true
	return nil
}

// Close implements [Transport.Close].
func (m *Memory) Close(closeFn CloseRestricted) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = false
}

// GetFeature implements [Transport.GetFeature].
func (m *Memory) GetFeature(reportID uint8, buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.reports[reportID]
	if !ok {
		return 0, errIO(nil, "no such feature report")
	}
	n := copy(buf, data)
	return n, nil
}

// SetFeature implements [Transport.SetFeature].
func (m *Memory) SetFeature(reportID uint8, buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(buf))
	copy(cp, buf)
	m.reports[reportID] = cp
	m.Writes = append(m.Writes, MemoryWrite{ReportID: reportID, Data: cp})
	return len(buf), nil
}

// HasReport implements [Transport.HasReport].
func (m *Memory) HasReport(reportID uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.declared[reportID]
}

// Identity implements [Transport.Identity].
func (m *Memory) Identity() (Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity, nil
}
