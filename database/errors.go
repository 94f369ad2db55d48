/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

var sqlErrorNames = map[SQLError]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no_rows",
	NoIndexErr:                  "no_index",
	NoColumnErr:                 "no_column",
	ExistIndexErr:               "exist_index",
	ExistColumnErr:              "exist_column",
	NoTableErr:                  "no_table",
	ExistTableErr:               "exist_table",
	DuplicateKeyErr:             "duplicate_key",
	NotNullViolationErr:         "not_null_violation",
	ForeignKeyViolationErr:      "foreign_key_violation",
	CheckConstraintViolationErr: "check_constraint_violation",
	DataTruncatedErr:            "data_truncated",
	InvalidTypeCastErr:          "invalid_type_cast",
}

func (e SQLError) String() string {
	if name, ok := sqlErrorNames[e]; ok {
		return name
	}
	return "unknown"
}

var mysqlErrorNumbers = map[uint16]SQLError{
	1091: NoIndexErr,
	1054: NoColumnErr,
	1061: ExistIndexErr,
	1060: ExistColumnErr,
	1146: NoTableErr,
	1050: ExistTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1406: DataTruncatedErr,
}

var postgresErrorCodes = map[pq.ErrorCode]SQLError{
	"42703": NoColumnErr,
	"42704": NoIndexErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"42701": ExistColumnErr,
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42804": InvalidTypeCastErr,
}

// textPatterns classifies drivers that only expose messages (sqlite) or
// errors that lost their type while being wrapped. Every substring of an
// entry must occur. Order matters.
var textPatterns = []struct {
	kind  SQLError
	parts []string
}{
	{NoColumnErr, []string{"sqlstate 42703"}},
	{NoColumnErr, []string{"undefined column"}},
	{NoColumnErr, []string{"no such column"}},
	{NoIndexErr, []string{"sqlstate 42704"}},
	{NoIndexErr, []string{"no such index"}},
	{NoIndexErr, []string{"index", "does not exist"}},
	{NoTableErr, []string{"sqlstate 42p01"}},
	{NoTableErr, []string{"undefined table"}},
	{NoTableErr, []string{"no such table"}},
	{ExistIndexErr, []string{"index", "already exists"}},
	{ExistTableErr, []string{"table", "already exists"}},
	{ExistTableErr, []string{"relation", "already exists"}},
	{DuplicateKeyErr, []string{"duplicate key value"}},
	{DuplicateKeyErr, []string{"unique constraint failed"}},
	{DuplicateKeyErr, []string{"sqlstate 23505"}},
	{NotNullViolationErr, []string{"not-null constraint"}},
	{NotNullViolationErr, []string{"not null constraint failed"}},
	{NotNullViolationErr, []string{"sqlstate 23502"}},
	{ForeignKeyViolationErr, []string{"foreign key violation"}},
	{ForeignKeyViolationErr, []string{"foreign key constraint failed"}},
	{ForeignKeyViolationErr, []string{"sqlstate 23503"}},
	{CheckConstraintViolationErr, []string{"check constraint"}},
	{CheckConstraintViolationErr, []string{"sqlstate 23514"}},
	{DataTruncatedErr, []string{"string data right truncation"}},
	{DataTruncatedErr, []string{"data truncated"}},
	{DataTruncatedErr, []string{"sqlstate 22001"}},
	{InvalidTypeCastErr, []string{"datatype mismatch"}},
	{InvalidTypeCastErr, []string{"sqlstate 42804"}},
}

// IsSqlError reports whether err is a recognizable database error and, if so,
// which kind. Driver error values are checked before message text.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if kind, ok := mysqlErrorNumbers[mysqlErr.Number]; ok {
			return true, kind
		}
		return true, UnknownErr
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if kind, ok := postgresErrorCodes[pqErr.Code]; ok {
			return true, kind
		}
		return true, UnknownErr
	}

	s := strings.ToLower(err.Error())
	for _, p := range textPatterns {
		if containsAll(s, p.parts) {
			return true, p.kind
		}
	}
	return false, UnknownErr
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	ok, kind := IsSqlError(err)
	return ok && kind == DuplicateKeyErr
}

func containsAll(s string, parts []string) bool {
	for _, part := range parts {
		if !strings.Contains(s, part) {
			return false
		}
	}
	return true
}
