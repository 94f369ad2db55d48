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
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"
	"github.com/tomoncle/garage"
	"github.com/tomoncle/garage/database"
	"github.com/tomoncle/garage/utils"
)

//go:embed seeds
var bundledSeeds embed.FS

// app carries the state shared by subcommands.
type app struct {
	cfgFile string
	envFile string
	cfg     *garage.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "garage",
		Short: "Vehicle records with filtered, sorted, paginated search",
		Long: `garage stores vehicle and administrator records in a SQL database
(sqlite, postgres or mysql) and answers vehicle searches with
case-insensitive name/brand filters, year bounds, sorting and paging.

Connection settings come from the config file and can be overridden by
DB_TYPE, DB_HOST, DB_PORT, DB_USERNAME, DB_PASSWORD, DB_NAME and the other
DB_* environment variables, which may also be set in a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (defaults built in when empty)")
	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the config")

	cmd.AddCommand(newMigrateCmd(a), newVehiclesCmd(a), newStatsCmd(a))
	return cmd
}

func (a *app) load(cmd *cobra.Command) error {
	if err := garage.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := garage.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	if cfg.Database.DataInitConfig.Filepath == "" && cfg.Database.DataInitConfig.FS == nil {
		sub, err := fs.Sub(bundledSeeds, "seeds")
		if err != nil {
			return err
		}
		cfg.Database.DataInitConfig.FS = sub
	}
	utils.ConfigureConsoleOutput(cmd.ErrOrStderr())
	cfg.ApplyLogging()
	a.cfg = cfg
	return nil
}

// open connects the database and wires the services. The returned func
// closes the connection.
func (a *app) open(ctx context.Context) (*garage.Garage, func(), error) {
	db, err := database.InitDB(ctx, &a.cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	g := garage.New(db, garage.WithQueryConfig(a.cfg.Query))
	return g, func() { _ = database.CloseDB() }, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
