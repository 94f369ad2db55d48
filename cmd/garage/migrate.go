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

package main

import (
	"github.com/spf13/cobra"
	"github.com/tomoncle/garage/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes",
		Long: `Apply the pending schema migrations: base tables, then the vehicle
indexes on name, brand and year. With --seed the SQL seed files
(common/ and environments/<env>/) are executed afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := database.InitDatabaseWithOptions(ctx, &a.cfg.Database, true)
			if err != nil {
				return err
			}
			defer func() { _ = database.CloseDB() }()

			if seed {
				if err := database.InitData(ctx); err != nil {
					return err
				}
			}
			applied, err := database.NewMigrationManager(db, nil, database.MigrationOptions{}).GetAppliedMigrations(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"migrations": applied,
				"seeded":     seed,
			})
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "run the SQL seed files after migrating")
	return cmd
}
