package binlog

import (
	"fmt"

	"github.com/go-mysql-org/go-mysql/replication"
	"github.com/shopspring/decimal"
)

type Action string

const (
	Insert Action = "INSERT"
	Update Action = "UPDATE"
	Delete Action = "DELETE"
)

// ledgerColumns mirrors the ledger schema. Used when the server does not
// ship column names (binlog_row_metadata=MINIMAL).
var ledgerColumns = map[string][]string{
	"accounts":       {"id", "position", "name", "account_type", "balance", "opening_balance", "currency", "color"},
	"transactions":   {"id", "position", "transaction_type", "account_id", "to_account_id", "category", "sub_category", "amount", "currency", "occurred_at", "note"},
	"categories":     {"id", "position", "name"},
	"sub_categories": {"category_id", "position", "name"},
}

// Change is one row change on a ledger table. Before is nil for inserts and
// After is nil for deletes.
type Change struct {
	Action  Action
	Schema  string
	Table   string
	Columns []string
	Before  []any
	After   []any
}

// ActionFor maps a rows event type to its action. v1 and v2 events are
// treated alike.
func ActionFor(t replication.EventType) (Action, bool) {
	switch t {
	case replication.WRITE_ROWS_EVENTv1, replication.WRITE_ROWS_EVENTv2:
		return Insert, true
	case replication.UPDATE_ROWS_EVENTv1, replication.UPDATE_ROWS_EVENTv2:
		return Update, true
	case replication.DELETE_ROWS_EVENTv1, replication.DELETE_ROWS_EVENTv2:
		return Delete, true
	}
	return "", false
}

// Changes decodes a rows event. Events on other schemas (when schema is
// set) or on tables outside the ledger schema yield nothing. Update events
// carry before/after image pairs.
func Changes(t replication.EventType, e *replication.RowsEvent, schema string) []Change {
	action, ok := ActionFor(t)
	if !ok || e.Table == nil {
		return nil
	}
	table := string(e.Table.Table)
	known, ok := ledgerColumns[table]
	if !ok {
		return nil
	}
	db := string(e.Table.Schema)
	if schema != "" && db != schema {
		return nil
	}
	columns := known
	if len(e.Table.ColumnName) > 0 {
		columns = make([]string, len(e.Table.ColumnName))
		for i, name := range e.Table.ColumnName {
			columns[i] = string(name)
		}
	}

	var out []Change
	step := 1
	if action == Update {
		step = 2
	}
	for i := 0; i+step <= len(e.Rows); i += step {
		c := Change{Action: action, Schema: db, Table: table, Columns: columns}
		switch action {
		case Insert:
			c.After = e.Rows[i]
		case Delete:
			c.Before = e.Rows[i]
		case Update:
			c.Before, c.After = e.Rows[i], e.Rows[i+1]
		}
		out = append(out, c)
	}
	return out
}

// Row returns the image that describes the row's current state: After, or
// Before for deletes.
func (c Change) Row() []any {
	if c.After != nil {
		return c.After
	}
	return c.Before
}

// Key is the first column of the row, the id of every ledger table.
func (c Change) Key() string {
	row := c.Row()
	if len(row) == 0 {
		return ""
	}
	return String(row[0])
}

// Value looks a column up by name in Row.
func (c Change) Value(column string) (any, bool) {
	return c.lookup(c.Row(), column)
}

// Previous looks a column up in the before image. Inserts have none.
func (c Change) Previous(column string) (any, bool) {
	return c.lookup(c.Before, column)
}

func (c Change) lookup(row []any, column string) (any, bool) {
	for i, name := range c.Columns {
		if name == column && i < len(row) {
			return row[i], true
		}
	}
	return nil, false
}

// Decimal reads a money column from Row. DECIMAL columns arrive as
// decimal.Decimal with UseDecimal, TEXT columns as strings or bytes.
func (c Change) Decimal(column string) (decimal.Decimal, error) {
	v, ok := c.Value(column)
	return c.toDecimal(column, v, ok)
}

// PreviousDecimal reads a money column from the before image.
func (c Change) PreviousDecimal(column string) (decimal.Decimal, error) {
	v, ok := c.Previous(column)
	return c.toDecimal(column, v, ok)
}

func (c Change) toDecimal(column string, v any, ok bool) (decimal.Decimal, error) {
	if !ok || v == nil {
		return decimal.Zero, fmt.Errorf("binlog: %s.%s: no value", c.Table, column)
	}
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	default:
		return decimal.NewFromString(String(x))
	}
}

// String renders a decoded column value.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
