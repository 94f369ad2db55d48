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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

const (
	seedCommonDir       = "common"
	seedEnvironmentsDir = "environments"
	unorderedSeedFile   = 999
)

var seedOrderPattern = regexp.MustCompile(`^(\d+)_`)

// SeedRunner executes the SQL files of a seed tree:
//
//	common/NNN_*.sql
//	environments/<environment>/NNN_*.sql
//
// Common files run first, then the environment's, each group ordered by
// the numeric prefix. Missing directories are skipped.
type SeedRunner struct {
	fsys        fs.FS
	environment string
	logger      Logger
}

// SQLFileInfo describes a seed file.
type SQLFileInfo struct {
	Path        string
	Name        string
	Order       int
	Environment string
}

// ExecutionResult contains the outcome of executing a single SQL file.
type ExecutionResult struct {
	File         string
	Statements   int
	RowsAffected int64
	Duration     time.Duration
}

func NewSeedRunner(fsys fs.FS, environment string, logger Logger) *SeedRunner {
	return &SeedRunner{
		fsys:        fsys,
		environment: environment,
		logger:      loggerOrDefault(logger),
	}
}

// Files lists the seed files in execution order.
func (s *SeedRunner) Files() ([]SQLFileInfo, error) {
	common, err := s.filesIn(seedCommonDir, seedCommonDir)
	if err != nil {
		return nil, err
	}
	files := common
	if s.environment != "" {
		envFiles, err := s.filesIn(path.Join(seedEnvironmentsDir, s.environment), s.environment)
		if err != nil {
			return nil, err
		}
		files = append(files, envFiles...)
	}
	return files, nil
}

func (s *SeedRunner) filesIn(dir, environment string) ([]SQLFileInfo, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seed directory %s: %w", dir, err)
	}

	files := make([]SQLFileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		files = append(files, SQLFileInfo{
			Path:        path.Join(dir, e.Name()),
			Name:        e.Name(),
			Order:       parseSeedOrder(e.Name()),
			Environment: environment,
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func parseSeedOrder(name string) int {
	m := seedOrderPattern.FindStringSubmatch(name)
	if len(m) < 2 {
		return unorderedSeedFile
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return unorderedSeedFile
	}
	return n
}

// Run executes every seed file against db and stops at the first failure.
// Wrap db in a transaction to make the whole run atomic.
func (s *SeedRunner) Run(ctx context.Context, db bun.IDB) ([]ExecutionResult, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		s.logger.Info("No SQL seed files found", "environment", s.environment)
		return nil, nil
	}

	results := make([]ExecutionResult, 0, len(files))
	for _, f := range files {
		res, err := s.executeFile(ctx, db, f)
		if err != nil {
			s.logger.Error("SQL seed file failed", "file", f.Path, "error", err)
			return results, fmt.Errorf("SQL seed file %s failed: %w", f.Path, err)
		}
		s.logger.Info("SQL seed file executed",
			"file", res.File,
			"statements", res.Statements,
			"rows_affected", res.RowsAffected,
			"duration", res.Duration.String(),
		)
		results = append(results, res)
	}
	return results, nil
}

func (s *SeedRunner) executeFile(ctx context.Context, db bun.IDB, f SQLFileInfo) (ExecutionResult, error) {
	start := time.Now()
	res := ExecutionResult{File: f.Path}

	content, err := fs.ReadFile(s.fsys, f.Path)
	if err != nil {
		return res, fmt.Errorf("failed to read file: %w", err)
	}

	for _, stmt := range splitSQLStatements(string(content)) {
		r, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return res, fmt.Errorf("failed to execute SQL statement %q: %w", stmt, err)
		}
		if n, err := r.RowsAffected(); err == nil {
			res.RowsAffected += n
		}
		res.Statements++
	}
	res.Duration = time.Since(start)
	return res, nil
}

// splitSQLStatements splits on lines ending with ';' and drops blank and
// "--" comment lines.
func splitSQLStatements(content string) []string {
	var statements []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			statements = append(statements, strings.TrimSuffix(stmt, ";"))
		}
		current.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString(" ")
		if strings.HasSuffix(line, ";") {
			flush()
		}
	}
	flush()
	return statements
}
