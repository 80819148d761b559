// Package surreal is a thin SurrealDB client used by the alternative store backend.
package surreal

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/surrealdb/surrealdb.go"
)

// Config names the server and the namespace/database pair to use.
type Config struct {
	Host      string
	User      string
	Pass      string
	Namespace string
	Database  string
}

type Client struct {
	db *surrealdb.DB
}

// identifierRegex keeps table and field names to alphanumerics and underscores.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func validateIdentifier(s string) error {
	if !identifierRegex.MatchString(s) {
		return errors.Errorf("invalid identifier: %s", s)
	}
	return nil
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	db, err := surrealdb.New(cfg.Host)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create surrealdb client")
	}

	if _, err = db.SignIn(ctx, map[string]interface{}{
		"user": cfg.User,
		"pass": cfg.Pass,
	}); err != nil {
		db.Close(ctx)
		return nil, errors.Wrap(err, "failed to signin to surrealdb")
	}

	if err = db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, errors.Wrap(err, "failed to use surrealdb namespace/database")
	}

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close(context.Background())
}

// Query runs sql and returns the unwrapped result of the last statement.
func (c *Client) Query(ctx context.Context, sql string, vars map[string]interface{}) (interface{}, error) {
	if vars == nil {
		vars = map[string]interface{}{}
	}
	result, err := surrealdb.Query[interface{}](ctx, c.db, sql, vars)
	if err != nil {
		return nil, err
	}

	// *[]QueryResult -> Result of the last element
	rv := reflect.ValueOf(result)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct {
		resField := rv.FieldByName("Result")
		if resField.IsValid() {
			return resField.Interface(), nil
		}
	} else if rv.Kind() == reflect.Slice {
		if rv.Len() > 0 {
			lastElem := rv.Index(rv.Len() - 1)
			if lastElem.Kind() == reflect.Struct {
				resField := lastElem.FieldByName("Result")
				if resField.IsValid() {
					return resField.Interface(), nil
				}
			}
		}
	}

	return result, nil
}

// SelectRecord fetches table:id and returns its row, or nil when absent.
func (c *Client) SelectRecord(ctx context.Context, table, id string) (map[string]interface{}, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT * FROM type::thing("%s", $id);`, table)
	result, err := c.Query(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}

	rows, ok := result.([]interface{})
	if !ok || len(rows) == 0 {
		return nil, nil
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("unexpected row type: %T", rows[0])
	}
	return row, nil
}

// Upsert inserts table:id with fields, overwriting them when the record exists.
func (c *Client) Upsert(ctx context.Context, table, id string, fields map[string]interface{}) error {
	query, err := buildUpsert(table, fields)
	if err != nil {
		return err
	}
	vars := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		vars[k] = v
	}
	vars["id"] = id
	_, err = c.Query(ctx, query, vars)
	return err
}

func buildUpsert(table string, fields map[string]interface{}) (string, error) {
	if err := validateIdentifier(table); err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", errors.New("no fields to upsert")
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		if err := validateIdentifier(k); err != nil {
			return "", err
		}
		if k == "id" {
			return "", errors.New("id is reserved")
		}
		names = append(names, k)
	}
	sort.Strings(names)

	values := make([]string, len(names))
	sets := make([]string, len(names))
	for i, n := range names {
		values[i] = "$" + n
		sets[i] = fmt.Sprintf("%s = $%s", n, n)
	}

	return fmt.Sprintf(
		`INSERT INTO %s (id, %s) VALUES (type::thing("%s", $id), %s) ON DUPLICATE KEY UPDATE %s;`,
		table, strings.Join(names, ", "), table, strings.Join(values, ", "), strings.Join(sets, ", "),
	), nil
}
