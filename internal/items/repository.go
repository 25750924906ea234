package items

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

// Postgres: unique_violation = 23505
const uniqueViolation = "23505"

const itemColumns = `id::text, name, category, price::text, stock, created_at, updated_at`

// database es el subset de pgxpool.Pool que usa el repositorio.
// Permite testear con fakes sin levantar Postgres.
type database interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository accede a la tabla items.
// Contiene SQL y mapeo DB → modelo.
type Repository struct {
	database database
}

// NewRepository crea un repositorio de items.
func NewRepository(database database) *Repository {
	return &Repository{database: database}
}

// Insert crea un item y devuelve el registro persistido.
// Usamos RETURNING para obtener id y timestamps generados por DB.
func (repository *Repository) Insert(ctx context.Context, input newItem) (catalog.Item, error) {
	const query = `
		INSERT INTO items (name, category, price, stock)
		VALUES ($1, $2, $3::numeric, $4)
		RETURNING ` + itemColumns + `;
	`

	row := repository.database.QueryRow(ctx, query, input.Name, string(input.Category), input.Price.StringFixed(2), input.Stock)
	return scanWriteResult(row)
}

// Restore vuelve a insertar un item conservando id y timestamps
// (undo de un delete o import de un export previo).
func (repository *Repository) Restore(ctx context.Context, item catalog.Item) (catalog.Item, error) {
	const query = `
		INSERT INTO items (id, name, category, price, stock, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4::numeric, $5, $6, $7)
		RETURNING ` + itemColumns + `;
	`

	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	row := repository.database.QueryRow(ctx, query,
		item.ID, item.Name, string(item.Category), item.Price.StringFixed(2), item.Stock, createdAt, updatedAt)
	return scanWriteResult(row)
}

// ListAll devuelve el inventario completo en orden de alta.
// El filtrado/orden/paginado se hace en memoria con catalog.View.
func (repository *Repository) ListAll(ctx context.Context) ([]catalog.Item, error) {
	const query = `
		SELECT ` + itemColumns + `
		FROM items
		ORDER BY created_at ASC, id ASC;
	`

	rows, err := repository.database.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []catalog.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID obtiene un item; si no existe devuelve ErrorNotFound.
func (repository *Repository) GetByID(ctx context.Context, id string) (catalog.Item, error) {
	const query = `
		SELECT ` + itemColumns + `
		FROM items
		WHERE id = $1::uuid;
	`

	item, err := scanItem(repository.database.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Item{}, ErrorNotFound
		}
		return catalog.Item{}, err
	}
	return item, nil
}

// Update aplica un update parcial. COALESCE deja intactos los campos nil.
func (repository *Repository) Update(ctx context.Context, id string, changes itemChanges) (catalog.Item, error) {
	const query = `
		UPDATE items SET
			name       = COALESCE($2, name),
			category   = COALESCE($3, category),
			price      = COALESCE($4::numeric, price),
			stock      = COALESCE($5, stock),
			updated_at = now()
		WHERE id = $1::uuid
		RETURNING ` + itemColumns + `;
	`

	var category *string
	if changes.Category != nil {
		value := string(*changes.Category)
		category = &value
	}
	var price *string
	if changes.Price != nil {
		value := changes.Price.StringFixed(2)
		price = &value
	}

	row := repository.database.QueryRow(ctx, query, id, changes.Name, category, price, changes.Stock)
	item, err := scanWriteResult(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Item{}, ErrorNotFound
		}
		return catalog.Item{}, err
	}
	return item, nil
}

// Delete borra un item y devuelve la fila borrada (para el undo).
func (repository *Repository) Delete(ctx context.Context, id string) (catalog.Item, error) {
	const query = `
		DELETE FROM items
		WHERE id = $1::uuid
		RETURNING ` + itemColumns + `;
	`

	item, err := scanItem(repository.database.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Item{}, ErrorNotFound
		}
		return catalog.Item{}, err
	}
	return item, nil
}

// scanWriteResult es scanItem + traducción de unique violation.
func scanWriteResult(row pgx.Row) (catalog.Item, error) {
	item, err := scanItem(row)
	if err != nil {
		// Detectar conflicto por índice unique (ux_items_category_name o pkey en restore).
		var postgresError *pgconn.PgError
		if errors.As(err, &postgresError) && postgresError.Code == uniqueViolation {
			return catalog.Item{}, ErrorDuplicateName
		}
		return catalog.Item{}, err
	}
	return item, nil
}

func scanItem(row pgx.Row) (catalog.Item, error) {
	var (
		item     catalog.Item
		category string
		price    string
	)
	if err := row.Scan(&item.ID, &item.Name, &category, &price, &item.Stock, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return catalog.Item{}, err
	}

	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return catalog.Item{}, fmt.Errorf("scan price %q: %w", price, err)
	}
	item.Category = catalog.Category(category)
	item.Price = parsed
	return item, nil
}
