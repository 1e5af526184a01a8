// Package sqlerr converts ORM and driver errors into errs.Error values.
//
// PostgreSQL (pgconn), MySQL and SQLite report constraint failures in
// different shapes. Translate reduces all of them to the data layer's four
// error kinds and builds a stable code plus a readable message.
package sqlerr

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/yeremiapane/freelance-app/errs"
)

type violation int

const (
	otherViolation violation = iota
	uniqueViolation
	foreignKeyViolation
	stillReferenced
	notNullViolation
	checkViolation
	outOfRange
)

// details is what we could learn about a constraint failure.
type details struct {
	kind       violation
	table      string
	column     string
	referenced string
}

var (
	pgKeyColumnRe    = regexp.MustCompile(`Key \(([^)]+)\)=`)
	pgReferencedRe   = regexp.MustCompile(`is not present in table "([^"]+)"`)
	mysqlDupKeyRe    = regexp.MustCompile(`for key '([^']+)'`)
	mysqlRangeColRe  = regexp.MustCompile(`for column '([^']+)'`)
	mysqlForeignRe   = regexp.MustCompile("`([^`]+)`, CONSTRAINT `[^`]+` FOREIGN KEY \\(`([^`]+)`\\) REFERENCES `([^`]+)`")
	mysqlNullColRe   = regexp.MustCompile(`Column '([^']+)' cannot be null`)
	sqliteColumnRe   = regexp.MustCompile(`constraint failed: ([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)`)
	constraintKeyRe  = regexp.MustCompile(`_(?:key|ukey|pkey)$`)
	constraintPrefix = []string{"idx_", "uni_", "unique_"}
)

// Translate maps err onto an *errs.Error. entity names the row the failing
// statement was about ("user", "customer", ...) and is used whenever the
// driver does not say which table was involved.
//
//   - nil stays nil and an *errs.Error passes through unchanged
//   - gorm.ErrRecordNotFound becomes NotFound
//   - unique violations become Conflict
//   - foreign key violations become NotFound for the referenced parent,
//     or Conflict when a parent still has children on delete
//   - not-null, check and numeric range violations become Validation
//   - everything else, cancellation included, becomes Storage
func Translate(err error, entity string) error {
	if err == nil {
		return nil
	}

	var appErr *errs.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NewNotFound(code(entity, "NOT_FOUND"),
			fmt.Sprintf("%s not found", capitalize(humanize(entity))), err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errs.NewStorage(err)
	}

	d, ok := inspect(err)
	if !ok {
		return errs.NewStorage(err)
	}

	domain := singular(d.table)
	if domain == "" {
		domain = entity
	}

	switch d.kind {
	case uniqueViolation:
		what := "identifier"
		if d.column != "" {
			what = humanize(d.column)
		}
		return errs.NewConflict(code(domain, "ALREADY_EXISTS"),
			fmt.Sprintf("%s %s with this %s already exists", article(domain), humanize(domain), what), err)

	case foreignKeyViolation:
		parent := singular(d.referenced)
		if parent == "" && strings.HasSuffix(d.column, "_id") {
			parent = strings.TrimSuffix(d.column, "_id")
		}
		if parent == "" {
			return errs.NewNotFound("REFERENCE_NOT_FOUND", "The referenced record does not exist", err)
		}
		return errs.NewNotFound(code(parent, "NOT_FOUND"),
			fmt.Sprintf("The referenced %s does not exist", humanize(parent)), err)

	case stillReferenced:
		return errs.NewConflict(code(domain, "IN_USE"),
			fmt.Sprintf("The %s is still referenced by other records", humanize(domain)), err)

	case notNullViolation:
		field := "field"
		var fields []errs.FieldError
		if d.column != "" {
			field = titleCase(d.column)
			fields = []errs.FieldError{{Field: strings.ToLower(d.column), Error: "is required"}}
		}
		return errs.NewValidation(code(domain, "REQUIRED"),
			fmt.Sprintf("The %s is required", field), fields, err)

	case checkViolation:
		msg := "One or more values do not meet required conditions"
		if d.column != "" {
			msg = fmt.Sprintf("The %s value does not meet required conditions", titleCase(d.column))
		}
		return errs.NewValidation(code(domain, "INVALID"), msg, nil, err)

	case outOfRange:
		var fields []errs.FieldError
		msg := "A numeric value is out of range"
		if d.column != "" {
			msg = fmt.Sprintf("The %s value is out of range", titleCase(d.column))
			fields = []errs.FieldError{{Field: strings.ToLower(d.column), Error: "is out of range"}}
		}
		return errs.NewValidation(code(domain, "INVALID"), msg, fields, err)
	}

	return errs.NewStorage(err)
}

// inspect recognises constraint failures from each supported driver. It
// reports false for errors that are not constraint failures.
func inspect(err error) (details, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromPostgres(pgErr)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fromMySQL(myErr)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return fromSQLite(liteErr)
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return details{kind: uniqueViolation}, true
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return details{kind: foreignKeyViolation}, true
	}

	return details{}, false
}

func fromPostgres(e *pgconn.PgError) (details, bool) {
	d := details{table: e.TableName, column: e.ColumnName}

	switch e.Code {
	case "23505":
		d.kind = uniqueViolation
		if d.column == "" {
			d.column = submatch(pgKeyColumnRe, e.Detail, 1)
		}
		if d.column == "" {
			d.column = columnFromConstraint(e.ConstraintName, e.TableName)
		}
	case "23503":
		d.kind = foreignKeyViolation
		d.referenced = submatch(pgReferencedRe, e.Detail, 1)
		if d.column == "" {
			d.column = submatch(pgKeyColumnRe, e.Detail, 1)
		}
	case "23502":
		d.kind = notNullViolation
	case "23514":
		d.kind = checkViolation
	case "22003":
		d.kind = outOfRange
	default:
		return d, false
	}

	return d, true
}

func fromMySQL(e *mysql.MySQLError) (details, bool) {
	var d details

	switch e.Number {
	case 1062:
		d.kind = uniqueViolation
		key := submatch(mysqlDupKeyRe, e.Message, 1)
		// MySQL 8 reports the key as "<table>.<index>".
		if table, index, found := strings.Cut(key, "."); found {
			d.table = table
			key = index
		}
		d.column = columnFromConstraint(key, d.table)
	case 1451:
		// The parent is being deleted while children still point at it.
		d.kind = stillReferenced
		if m := mysqlForeignRe.FindStringSubmatch(e.Message); m != nil {
			d.table = m[3]
		}
	case 1452:
		d.kind = foreignKeyViolation
		if m := mysqlForeignRe.FindStringSubmatch(e.Message); m != nil {
			d.table, d.column, d.referenced = m[1], m[2], m[3]
		}
	case 1048:
		d.kind = notNullViolation
		d.column = submatch(mysqlNullColRe, e.Message, 1)
	case 3819:
		d.kind = checkViolation
	case 1264:
		d.kind = outOfRange
		d.column = submatch(mysqlRangeColRe, e.Message, 1)
	default:
		return d, false
	}

	return d, true
}

func fromSQLite(e sqlite3.Error) (details, bool) {
	var d details

	switch e.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		d.kind = uniqueViolation
	case sqlite3.ErrConstraintForeignKey:
		d.kind = foreignKeyViolation
	case sqlite3.ErrConstraintNotNull:
		d.kind = notNullViolation
	case sqlite3.ErrConstraintCheck:
		d.kind = checkViolation
	default:
		return d, false
	}

	// e.g. "UNIQUE constraint failed: users.email"
	if m := sqliteColumnRe.FindStringSubmatch(e.Error()); m != nil {
		d.table, d.column = m[1], m[2]
	}

	return d, true
}

// columnFromConstraint guesses the column behind a unique index name.
// It understands gorm's "idx_<table>_<column>" and "uni_<table>_<column>",
// "unique_<table>_<column>" and Postgres' "<table>_<column>_key".
func columnFromConstraint(name, table string) string {
	if name == "" {
		return ""
	}

	name = constraintKeyRe.ReplaceAllString(name, "")
	for _, prefix := range constraintPrefix {
		name = strings.TrimPrefix(name, prefix)
	}

	if table != "" && strings.HasPrefix(name, table+"_") {
		return strings.TrimPrefix(name, table+"_")
	}

	parts := strings.Split(name, "_")
	return parts[len(parts)-1]
}

func submatch(re *regexp.Regexp, s string, i int) string {
	m := re.FindStringSubmatch(s)
	if len(m) <= i {
		return ""
	}
	return m[i]
}

// singular is deliberately naive: "users" -> "user", "customers" -> "customer".
func singular(table string) string {
	table = strings.ToLower(table)
	if len(table) > 1 && strings.HasSuffix(table, "s") {
		return table[:len(table)-1]
	}
	return table
}

func code(domain, action string) string {
	if domain == "" {
		domain = "record"
	}
	return fmt.Sprintf("%s_%s", strings.ToUpper(strings.ReplaceAll(domain, " ", "_")), action)
}

func humanize(s string) string {
	if s == "" {
		return "record"
	}
	return strings.ToLower(strings.ReplaceAll(s, "_", " "))
}

func titleCase(s string) string {
	return cases.Title(language.English).String(humanize(s))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(strings.ToLower(word)[0])) {
		return "An"
	}
	return "A"
}
