package items

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

const auditCapacity = 20

// auditLog mantiene las últimas N entradas, la más nueva primero.
type auditLog struct {
	mu       sync.Mutex
	capacity int
	log      []AuditEntry
}

func newAuditLog(capacity int) *auditLog {
	return &auditLog{capacity: capacity}
}

// record agrega una entrada solo si cambió precio o stock.
func (audit *auditLog) record(before, after catalog.Item, at time.Time) {
	var changes []string
	if !before.Price.Equal(after.Price) {
		changes = append(changes, "price $"+before.Price.StringFixed(2)+" → $"+after.Price.StringFixed(2))
	}
	if before.Stock != after.Stock {
		changes = append(changes, "stock "+strconv.Itoa(before.Stock)+" → "+strconv.Itoa(after.Stock))
	}
	if len(changes) == 0 {
		return
	}

	entry := AuditEntry{
		ItemID:      after.ID,
		Timestamp:   at.UTC(),
		Description: strings.Join(changes, ", "),
	}

	audit.mu.Lock()
	defer audit.mu.Unlock()

	audit.log = append([]AuditEntry{entry}, audit.log...)
	if len(audit.log) > audit.capacity {
		audit.log = audit.log[:audit.capacity]
	}
}

func (audit *auditLog) entries() []AuditEntry {
	audit.mu.Lock()
	defer audit.mu.Unlock()

	out := make([]AuditEntry, len(audit.log))
	copy(out, audit.log)
	return out
}
