package storage

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/logger"
)

// Kinds accepted by Open.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open returns the repository for kind, rooted at dir.
func Open(kind, dir string, log *logger.Logger) (domain.Repository, error) {
	switch strings.ToLower(kind) {
	case KindMemory:
		return NewMemoryStore(log), nil
	case KindFile, "":
		return NewFileStore(dir, log)
	case KindSQLite:
		return OpenSQLite(dir, log)
	default:
		return nil, fmt.Errorf("unknown store %q (want memory, file or sqlite)", kind)
	}
}
