package collector

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/synod-io/synod/internal/logging"
	"github.com/synod-io/synod/internal/models"
)

// Archiver writes a JSON copy of each collected snapshot to disk for
// later inspection. Archiving is fire and forget: failures are logged,
// never surfaced to the diagnosis.
type Archiver struct {
	dir    string
	logger *logging.Logger
	wg     sync.WaitGroup
}

// NewArchiver creates an archiver writing into dir. The directory is
// created on first use.
func NewArchiver(dir string) *Archiver {
	return &Archiver{
		dir:    dir,
		logger: logging.GetLogger("collector.archive"),
	}
}

// Archive persists the snapshot asynchronously.
func (a *Archiver) Archive(snapshot *models.GlobalContext) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.write(snapshot)
	}()
}

// Flush blocks until all pending archive writes finished. Used on
// shutdown and in tests.
func (a *Archiver) Flush() {
	a.wg.Wait()
}

func (a *Archiver) write(snapshot *models.GlobalContext) {
	if err := os.MkdirAll(a.dir, 0o750); err != nil {
		a.logger.Warn("creating archive dir: %v", err)
		return
	}

	name := "snapshot_" + snapshot.Timestamp.Format("20060102_150405") + ".json"
	path := filepath.Join(a.dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		a.logger.Warn("marshaling snapshot: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		a.logger.Warn("writing snapshot archive: %v", err)
		return
	}

	a.logger.DebugWithFields("snapshot archived", logging.Field("path", path))
}
