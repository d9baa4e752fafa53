package action

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"proctor/internal/testcontext"
	"proctor/pkg/logging"
)

// SQL executes statements against a data source and optionally runs a
// query whose columns are validated and extracted. Column names are
// matched case-insensitively; a column spanning several rows has its values
// joined with ";". NULL reads as "NULL".
type SQL struct {
	DataSource  string
	Statements  []string
	Query       string
	Validate    map[string]string
	Extract     map[string]string
	DataSources DataSourceLookup
}

func (a *SQL) Name() string { return "sql" }

func (a *SQL) Execute(ctx context.Context, tc *testcontext.Context) error {
	if a.DataSources == nil {
		return fmt.Errorf("no data sources configured, cannot use data source %s", a.DataSource)
	}
	db, err := a.DataSources.DB(a.DataSource)
	if err != nil {
		return err
	}

	for _, stmt := range a.Statements {
		resolved, err := tc.ReplaceDynamicContentInString(stmt, false)
		if err != nil {
			return err
		}
		logging.Debug(subsystem, "Executing SQL statement: %s", resolved)
		if _, err := db.ExecContext(ctx, resolved); err != nil {
			return fmt.Errorf("execute statement %q: %w", resolved, err)
		}
	}

	if a.Query == "" {
		return nil
	}

	query, err := tc.ReplaceDynamicContentInString(a.Query, false)
	if err != nil {
		return err
	}
	columns, err := queryColumns(ctx, db, query)
	if err != nil {
		return err
	}

	for _, column := range sortedKeys(a.Validate) {
		actual, ok := columns[strings.ToUpper(column)]
		if !ok {
			return &testcontext.ElementError{Path: column, Err: testcontext.ErrUnknownElement}
		}
		if err := validateValue(tc, column, actual, a.Validate[column]); err != nil {
			return err
		}
	}

	for _, column := range sortedKeys(a.Extract) {
		actual, ok := columns[strings.ToUpper(column)]
		if !ok {
			return &testcontext.ElementError{Path: column, Err: testcontext.ErrUnknownElement}
		}
		if err := tc.SetVariable(a.Extract[column], actual); err != nil {
			return err
		}
	}
	return nil
}

func queryColumns(ctx context.Context, db *sql.DB, query string) (map[string]string, error) {
	logging.Debug(subsystem, "Executing SQL query: %s", query)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query %q: %w", query, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make(map[string][]string, len(names))
	for rows.Next() {
		raw := make([]sql.NullString, len(names))
		dest := make([]any, len(names))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan query result: %w", err)
		}
		for i, name := range names {
			v := "NULL"
			if raw[i].Valid {
				v = raw[i].String
			}
			key := strings.ToUpper(name)
			values[key] = append(values[key], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	columns := make(map[string]string, len(names))
	for _, name := range names {
		key := strings.ToUpper(name)
		columns[key] = strings.Join(values[key], ";")
	}
	return columns, nil
}
