package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// postgresHandler implements the postgres kind (spec §4.3): a credentialId
// resolves to connection parameters, a short-lived pooled (max 1)
// connection is opened per invocation, and one of executeQuery/select/
// insert runs against it. Grounded on
// rakunlabs-at/internal/store/postgres/postgres.go's pgx/v5 usage, but
// pooled per call rather than held for the store's lifetime — this node
// is a transient, per-execution consumer, not a persistence layer.
type postgresHandler struct{}

func (postgresHandler) Kind() string { return "postgres" }

func (h postgresHandler) Execute(ectx EngineContext, node types.Node, input value.Value) (value.Value, error) {
	credID, ok := configString(node.Config, "credentialId")
	if !ok {
		return value.Null(), engineerr.MissingField("credentialId")
	}
	if ectx.Capabilities.Store == nil {
		return value.Null(), engineerr.Config("no Store capability configured")
	}

	cred, err := ectx.Capabilities.Store.GetCredential(ectx.Context(), credID)
	if err != nil {
		return value.Null(), engineerr.Credential(fmt.Sprintf("credential %q not found", credID))
	}

	dsn, err := buildPostgresDSN(cred.Data)
	if err != nil {
		return value.Null(), err
	}

	connectTimeout := 5 * time.Second
	if ectx.Config != nil && ectx.Config.PostgresConnectTimeout > 0 {
		connectTimeout = ectx.Config.PostgresConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ectx.Context(), connectTimeout)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return value.Null(), engineerr.Config("invalid postgres connection parameters: " + err.Error())
	}
	poolCfg.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return value.Null(), engineerr.External("Postgres Error", err.Error(), err)
	}
	defer pool.Close()

	operation := configStringDefault(node.Config, "operation", "executeQuery")
	switch operation {
	case "executeQuery":
		return h.executeQuery(ectx, pool, node.Config, input)
	case "select":
		return h.selectRows(ectx, pool, node.Config, input)
	case "insert":
		return h.insert(ectx, pool, node.Config, input)
	default:
		return value.Null(), engineerr.Config("unsupported postgres operation " + operation)
	}
}

func (postgresHandler) executeQuery(ectx EngineContext, pool *pgxpool.Pool, cfg, input value.Value) (value.Value, error) {
	sqlTemplate, ok := configString(cfg, "query")
	if !ok {
		return value.Null(), engineerr.MissingField("query")
	}
	sql := value.Interpolate(sqlTemplate, input)

	rows, err := pool.Query(ectx.Context(), sql)
	if err != nil {
		return value.Null(), engineerr.External("Postgres Error", err.Error(), err)
	}
	defer rows.Close()
	return rowsToValue(rows)
}

func (postgresHandler) selectRows(ectx EngineContext, pool *pgxpool.Pool, cfg, input value.Value) (value.Value, error) {
	table, ok := configString(cfg, "table")
	if !ok {
		return value.Null(), engineerr.MissingField("table")
	}
	schema := configStringDefault(cfg, "schema", "public")
	where := value.Interpolate(configStringDefault(cfg, "where", ""), input)
	sort := value.Interpolate(configStringDefault(cfg, "sort", ""), input)
	limit := int(configNumber(cfg, "limit", 50))

	var b strings.Builder
	fmt.Fprintf(&b, `SELECT * FROM "%s"."%s"`, schema, table)
	if where != "" {
		fmt.Fprintf(&b, " WHERE %s", where)
	}
	if sort != "" {
		fmt.Fprintf(&b, " ORDER BY %s", sort)
	}
	fmt.Fprintf(&b, " LIMIT %d", limit)

	rows, err := pool.Query(ectx.Context(), b.String())
	if err != nil {
		return value.Null(), engineerr.External("Postgres Error", err.Error(), err)
	}
	defer rows.Close()
	return rowsToValue(rows)
}

func (postgresHandler) insert(ectx EngineContext, pool *pgxpool.Pool, cfg, input value.Value) (value.Value, error) {
	table, ok := configString(cfg, "table")
	if !ok {
		return value.Null(), engineerr.MissingField("table")
	}
	schema := configStringDefault(cfg, "schema", "public")

	columnsValue, ok := cfg.Get("columns")
	if !ok || !columnsValue.IsArray() {
		return value.Null(), engineerr.MissingField("columns")
	}

	columns := make([]string, 0, columnsValue.Len())
	args := make([]interface{}, 0, columnsValue.Len())
	placeholders := make([]string, 0, columnsValue.Len())
	for i, col := range columnsValue.Items() {
		name := col.Str()
		columns = append(columns, name)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		field, _ := input.Get(name)
		args = append(args, field.Raw())
	}

	sql := fmt.Sprintf(`INSERT INTO "%s"."%s" (%s) VALUES (%s)`,
		schema, table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	tag, err := pool.Exec(ectx.Context(), sql, args...)
	if err != nil {
		return value.Null(), engineerr.External("Postgres Error", err.Error(), err)
	}

	out := value.NewObject()
	out.Set("inserted", value.Number(float64(tag.RowsAffected())))
	return out, nil
}

// rowsToValue materialises a pgx.Rows result as an array of column→value
// mappings, coercing each cell by the spec's probing order (string, i64,
// f64, bool, null). pgx already decodes cells into native Go types per
// column OID, so the "probing" here is a type switch in that priority
// order rather than byte-level parsing.
func rowsToValue(rows pgx.Rows) (value.Value, error) {
	fields := rows.FieldDescriptions()
	var out []value.Value

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return value.Null(), engineerr.External("Postgres Error", err.Error(), err)
		}

		row := value.NewObject()
		for i, cell := range values {
			name := string(fields[i].Name)
			row.Set(name, coerceCell(cell))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return value.Null(), engineerr.External("Postgres Error", err.Error(), err)
	}

	return value.Array(out...), nil
}

func coerceCell(cell interface{}) value.Value {
	switch v := cell.(type) {
	case nil:
		return value.Null()
	case string:
		return value.String(v)
	case int64:
		return value.Number(float64(v))
	case int32:
		return value.Number(float64(v))
	case int:
		return value.Number(float64(v))
	case float64:
		return value.Number(v)
	case float32:
		return value.Number(float64(v))
	case bool:
		return value.Bool(v)
	case time.Time:
		return value.String(v.Format(time.RFC3339))
	case fmt.Stringer:
		return value.String(v.String())
	default:
		return value.String(fmt.Sprintf("%v", v))
	}
}

func buildPostgresDSN(data value.Value) (string, error) {
	if dsn, ok := data.Get("connectionString"); ok && dsn.IsString() && dsn.Str() != "" {
		return dsn.Str(), nil
	}
	if dsn, ok := data.Get("dsn"); ok && dsn.IsString() && dsn.Str() != "" {
		return dsn.Str(), nil
	}

	host, ok := data.Get("host")
	if !ok || !host.IsString() || host.Str() == "" {
		return "", engineerr.Credential("postgres credential missing host/connectionString")
	}
	port := int(numberOr(data, "port", 5432))
	user := stringOr(data, "user", "")
	password := stringOr(data, "password", "")
	database := stringOr(data, "database", "")
	sslmode := stringOr(data, "sslmode", "disable")

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", user, password, host.Str(), port, database, sslmode), nil
}

func numberOr(v value.Value, key string, def float64) float64 {
	if field, ok := v.Get(key); ok && field.IsNumber() {
		return field.Number()
	}
	return def
}

func stringOr(v value.Value, key, def string) string {
	if field, ok := v.Get(key); ok && field.IsString() {
		return field.Str()
	}
	return def
}
