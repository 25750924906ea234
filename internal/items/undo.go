package items

import (
	"sync"
	"time"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

// undoBuffer guarda el último item borrado durante una ventana fija.
type undoBuffer struct {
	mu        sync.Mutex
	window    time.Duration
	item      catalog.Item
	deletedAt time.Time
	pending   bool
}

func (buffer *undoBuffer) put(item catalog.Item, now time.Time) {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	buffer.item = item
	buffer.deletedAt = now
	buffer.pending = true
}

// peek devuelve el item pendiente sin vaciar el buffer, junto con su marca
// de borrado. Si la ventana expiró lo descarta y ok=false.
func (buffer *undoBuffer) peek(now time.Time) (catalog.Item, time.Time, bool) {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	if !buffer.pending {
		return catalog.Item{}, time.Time{}, false
	}
	if now.Sub(buffer.deletedAt) > buffer.window {
		buffer.reset()
		return catalog.Item{}, time.Time{}, false
	}
	return buffer.item, buffer.deletedAt, true
}

// clear vacía el buffer solo si sigue guardando el mismo borrado.
// Un delete posterior no se pisa.
func (buffer *undoBuffer) clear(id string, deletedAt time.Time) {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()

	if buffer.pending && buffer.item.ID == id && buffer.deletedAt.Equal(deletedAt) {
		buffer.reset()
	}
}

func (buffer *undoBuffer) reset() {
	buffer.item = catalog.Item{}
	buffer.deletedAt = time.Time{}
	buffer.pending = false
}
