package items

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

const testItemID = "550e8400-e29b-41d4-a716-446655440000"

func itemRow(item catalog.Item) []any {
	return []any{item.ID, item.Name, string(item.Category), item.Price.StringFixed(2), item.Stock, item.CreatedAt, item.UpdatedAt}
}

func sampleItem() catalog.Item {
	createdAt := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	return catalog.Item{
		ID:        testItemID,
		Name:      "Laptop",
		Category:  catalog.CategoryElectronics,
		Price:     decimal.RequireFromString("999.99"),
		Stock:     4,
		CreatedAt: createdAt,
		UpdatedAt: createdAt.Add(time.Hour),
	}
}

func TestRepository_Insert(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)
		expected := sampleItem()

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{values: itemRow(expected)}
		}

		item, err := repository.Insert(context.Background(), newItem{
			Name:     "Laptop",
			Category: catalog.CategoryElectronics,
			Price:    decimal.RequireFromString("999.99"),
			Stock:    4,
		})

		require.NoError(t, err)
		require.True(t, expected.Price.Equal(item.Price))
		item.Price = expected.Price
		require.Equal(t, expected, item)
		require.Contains(t, database.lastQuery, "INSERT INTO items")
		require.Equal(t, []any{"Laptop", "Electronics", "999.99", 4}, database.lastArgs)
	})

	t.Run("duplicate name returns domain error", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{err: &pgconn.PgError{Code: "23505"}}
		}

		_, err := repository.Insert(context.Background(), newItem{Name: "Repeated", Category: catalog.CategoryBooks, Price: decimal.NewFromInt(15)})

		require.ErrorIs(t, err, ErrorDuplicateName)
	})

	t.Run("other database errors are returned", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		dbErr := errors.New("db down")
		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{err: dbErr}
		}

		_, err := repository.Insert(context.Background(), newItem{Name: "Whatever", Category: catalog.CategoryBooks, Price: decimal.NewFromInt(5)})

		require.ErrorIs(t, err, dbErr)
	})

	t.Run("invalid price from database", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		row := itemRow(sampleItem())
		row[3] = "not-a-number"
		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{values: row}
		}

		_, err := repository.Insert(context.Background(), newItem{Name: "Laptop", Category: catalog.CategoryElectronics, Price: decimal.NewFromInt(1)})

		require.ErrorContains(t, err, "scan price")
	})
}

func TestRepository_Restore(t *testing.T) {
	t.Run("keeps id and timestamps", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)
		item := sampleItem()

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{values: itemRow(item)}
		}

		restored, err := repository.Restore(context.Background(), item)

		require.NoError(t, err)
		require.Equal(t, item.ID, restored.ID)
		require.Contains(t, normalizeSQL(database.lastQuery), "VALUES ($1::uuid, $2, $3, $4::numeric, $5, $6, $7)")
		require.Equal(t, []any{item.ID, "Laptop", "Electronics", "999.99", 4, item.CreatedAt, item.UpdatedAt}, database.lastArgs)
	})

	t.Run("zero timestamps are filled", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)
		item := sampleItem()
		item.CreatedAt = time.Time{}
		item.UpdatedAt = time.Time{}

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{values: itemRow(sampleItem())}
		}

		_, err := repository.Restore(context.Background(), item)

		require.NoError(t, err)
		createdAt, ok := database.lastArgs[5].(time.Time)
		require.True(t, ok)
		require.False(t, createdAt.IsZero())
		require.Equal(t, createdAt, database.lastArgs[6])
	})

	t.Run("existing id is a conflict", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{err: &pgconn.PgError{Code: "23505"}}
		}

		_, err := repository.Restore(context.Background(), sampleItem())

		require.ErrorIs(t, err, ErrorDuplicateName)
	})
}

func TestRepository_ListAll(t *testing.T) {
	t.Run("returns all rows", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		first := sampleItem()
		second := sampleItem()
		second.ID = "660e8400-e29b-41d4-a716-446655440000"
		second.Name = "Blender"
		second.Category = catalog.CategoryHomeKitchen
		second.Price = decimal.RequireFromString("49.50")

		rows := &fakeRows{rows: [][]any{itemRow(first), itemRow(second)}}
		database.queryFn = func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return rows, nil
		}

		items, err := repository.ListAll(context.Background())

		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, "Blender", items[1].Name)
		require.Equal(t, catalog.CategoryHomeKitchen, items[1].Category)
		require.Equal(t, "49.50", items[1].Price.StringFixed(2))
		require.True(t, rows.closed)
		require.Contains(t, normalizeSQL(database.lastQuery), "ORDER BY created_at ASC, id ASC")
	})

	t.Run("empty table returns empty slice", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		database.queryFn = func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &fakeRows{}, nil
		}

		items, err := repository.ListAll(context.Background())

		require.NoError(t, err)
		require.NotNil(t, items)
		require.Empty(t, items)
	})

	t.Run("query error", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		dbErr := errors.New("query failed")
		database.queryFn = func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return nil, dbErr
		}

		_, err := repository.ListAll(context.Background())

		require.ErrorIs(t, err, dbErr)
	})

	t.Run("scan error", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		scanErr := errors.New("scan failed")
		database.queryFn = func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &fakeRows{rows: [][]any{itemRow(sampleItem())}, scanErr: scanErr}, nil
		}

		_, err := repository.ListAll(context.Background())

		require.ErrorIs(t, err, scanErr)
	})

	t.Run("rows error", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		rowsErr := errors.New("rows failed")
		database.queryFn = func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &fakeRows{err: rowsErr}, nil
		}

		_, err := repository.ListAll(context.Background())

		require.ErrorIs(t, err, rowsErr)
	})
}

func TestRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)
		expected := sampleItem()

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{values: itemRow(expected)}
		}

		item, err := repository.GetByID(context.Background(), testItemID)

		require.NoError(t, err)
		require.Equal(t, expected.Name, item.Name)
		require.Equal(t, []any{testItemID}, database.lastArgs)
	})

	t.Run("not found", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{err: pgx.ErrNoRows}
		}

		_, err := repository.GetByID(context.Background(), testItemID)

		require.ErrorIs(t, err, ErrorNotFound)
	})
}

func TestRepository_Update(t *testing.T) {
	t.Run("partial update sends nils", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)
		expected := sampleItem()

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{values: itemRow(expected)}
		}

		stock := 9
		_, err := repository.Update(context.Background(), testItemID, itemChanges{Stock: &stock})

		require.NoError(t, err)
		require.Contains(t, normalizeSQL(database.lastQuery), "price = COALESCE($4::numeric, price)")
		require.Equal(t, []any{testItemID, (*string)(nil), (*string)(nil), (*string)(nil), &stock}, database.lastArgs)
	})

	t.Run("typed values are sent as text", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{values: itemRow(sampleItem())}
		}

		category := catalog.CategoryBooks
		price := decimal.RequireFromString("12.5")
		_, err := repository.Update(context.Background(), testItemID, itemChanges{Category: &category, Price: &price})

		require.NoError(t, err)
		require.Equal(t, "Books", *database.lastArgs[2].(*string))
		require.Equal(t, "12.50", *database.lastArgs[3].(*string))
	})

	t.Run("not found", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{err: pgx.ErrNoRows}
		}

		name := "Other"
		_, err := repository.Update(context.Background(), testItemID, itemChanges{Name: &name})

		require.ErrorIs(t, err, ErrorNotFound)
	})

	t.Run("duplicate", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{err: &pgconn.PgError{Code: "23505"}}
		}

		name := "Taken"
		_, err := repository.Update(context.Background(), testItemID, itemChanges{Name: &name})

		require.ErrorIs(t, err, ErrorDuplicateName)
	})
}

func TestRepository_Delete(t *testing.T) {
	t.Run("returns deleted row", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)
		expected := sampleItem()

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{values: itemRow(expected)}
		}

		deleted, err := repository.Delete(context.Background(), testItemID)

		require.NoError(t, err)
		require.Equal(t, expected.ID, deleted.ID)
		require.Contains(t, database.lastQuery, "DELETE FROM items")
	})

	t.Run("not found", func(t *testing.T) {
		database := &fakeDB{}
		repository := NewRepository(database)

		database.queryRowFn = func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &fakeRow{err: pgx.ErrNoRows}
		}

		_, err := repository.Delete(context.Background(), testItemID)

		require.ErrorIs(t, err, ErrorNotFound)
	})
}

type fakeDB struct {
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)

	lastQuery      string
	lastArgs       []any
	queryRowCalled bool
	queryCalled    bool
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	db.queryRowCalled = true
	db.lastQuery = sql
	db.lastArgs = args
	if db.queryRowFn == nil {
		return &fakeRow{err: errors.New("unexpected QueryRow call")}
	}
	return db.queryRowFn(ctx, sql, args...)
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.queryCalled = true
	db.lastQuery = sql
	db.lastArgs = args
	if db.queryFn == nil {
		return nil, errors.New("unexpected Query call")
	}
	return db.queryFn(ctx, sql, args...)
}

type fakeRow struct {
	values []any
	err    error
}

func (row *fakeRow) Scan(dest ...any) error {
	if row.err != nil {
		return row.err
	}
	return assignValues(dest, row.values)
}

type fakeRows struct {
	rows    [][]any
	idx     int
	closed  bool
	err     error
	scanErr error
}

func (rows *fakeRows) Close() {
	rows.closed = true
}

func (rows *fakeRows) Err() error {
	return rows.err
}

func (rows *fakeRows) CommandTag() pgconn.CommandTag {
	return pgconn.CommandTag{}
}

func (rows *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}

func (rows *fakeRows) Next() bool {
	if rows.closed {
		return false
	}
	if rows.idx >= len(rows.rows) {
		rows.closed = true
		return false
	}
	rows.idx++
	return true
}

func (rows *fakeRows) Scan(dest ...any) error {
	if rows.scanErr != nil {
		return rows.scanErr
	}
	if rows.idx == 0 || rows.idx > len(rows.rows) {
		return errors.New("scan called without next")
	}
	return assignValues(dest, rows.rows[rows.idx-1])
}

func (rows *fakeRows) Values() ([]any, error) {
	return nil, errors.New("not implemented")
}

func (rows *fakeRows) RawValues() [][]byte {
	return nil
}

func (rows *fakeRows) Conn() *pgx.Conn {
	return nil
}

func assignValues(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("dest len %d does not match values len %d", len(dest), len(values))
	}
	for i, d := range dest {
		if d == nil {
			continue
		}
		if err := assignValue(d, values[i]); err != nil {
			return err
		}
	}
	return nil
}

func assignValue(dest any, value any) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr {
		return fmt.Errorf("dest is not pointer")
	}
	if value == nil {
		destValue.Elem().Set(reflect.Zero(destValue.Elem().Type()))
		return nil
	}
	valueValue := reflect.ValueOf(value)
	destElem := destValue.Elem()
	if destElem.Kind() == reflect.Ptr {
		ptrValue := reflect.New(destElem.Type().Elem())
		ptrValue.Elem().Set(valueValue.Convert(destElem.Type().Elem()))
		destElem.Set(ptrValue)
		return nil
	}
	destElem.Set(valueValue.Convert(destElem.Type()))
	return nil
}

func normalizeSQL(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
