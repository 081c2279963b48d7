package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// Snapshot is the JSON file layout for seed data: jobs plus their
// application records.
type Snapshot struct {
	Jobs         []*Job         `json:"jobs"`
	Applications []*Application `json:"applications"`
}

// LoadSnapshot reads a snapshot file and builds an in-memory store from it.
func LoadSnapshot(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file %q: %w", path, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot file %q: %w", path, err)
	}

	m := NewMemory()
	for _, j := range snapshot.Jobs {
		m.PutJob(j)
	}
	for _, a := range snapshot.Applications {
		m.PutApplication(a)
	}

	return m, nil
}

// DumpSnapshot writes the store's current contents to the given file.
func (m *Memory) DumpSnapshot(path string) error {
	snapshot := Snapshot{Jobs: m.Jobs()}
	for _, j := range snapshot.Jobs {
		apps, err := m.ApplicationsByJob(j.ID)
		if err != nil {
			return err
		}
		snapshot.Applications = append(snapshot.Applications, apps...)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file %q: %w", path, err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("writing snapshot file %q: %w", path, err)
	}

	return nil
}
