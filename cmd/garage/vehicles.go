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
	"github.com/tomoncle/garage/model"
	"github.com/tomoncle/garage/query"
)

func newVehiclesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "Search and manage vehicle records",
	}
	cmd.AddCommand(newVehiclesSearchCmd(a), newVehiclesAddCmd(a), newVehiclesGetCmd(a))
	return cmd
}

func newVehiclesSearchCmd(a *app) *cobra.Command {
	var flags struct {
		name     string
		brand    string
		yearMin  int
		yearMax  int
		page     int
		pageSize int
		sortBy   string
		desc     bool
	}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search vehicles",
		Long: `Search vehicles with optional filters. Name and brand match
case-insensitive substrings; year bounds are inclusive. Results are sorted by
name, brand, year or id (unknown keys fall back to name) and paged.

Examples:
  garage vehicles search --name civ
  garage vehicles search --brand honda --year-min 2010 --sort-by year --desc
  garage vehicles search --page 3 --page-size 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := query.RawFilter{}
			changed := cmd.Flags().Changed
			if changed("name") {
				raw.Name = query.Ptr(flags.name)
			}
			if changed("brand") {
				raw.Brand = query.Ptr(flags.brand)
			}
			if changed("year-min") {
				raw.YearMin = query.Ptr(flags.yearMin)
			}
			if changed("year-max") {
				raw.YearMax = query.Ptr(flags.yearMax)
			}
			if changed("page") {
				raw.Page = query.Ptr(flags.page)
			}
			if changed("page-size") {
				raw.PageSize = query.Ptr(flags.pageSize)
			}
			if changed("sort-by") {
				raw.SortBy = query.Ptr(flags.sortBy)
			}
			if changed("desc") {
				raw.SortAscending = query.Ptr(!flags.desc)
			}

			g, closeDB, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			page, err := g.Vehicles.Search(cmd.Context(), raw)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), page)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.name, "name", "", "name contains (case-insensitive)")
	f.StringVar(&flags.brand, "brand", "", "brand contains (case-insensitive)")
	f.IntVar(&flags.yearMin, "year-min", 0, "minimum model year (inclusive)")
	f.IntVar(&flags.yearMax, "year-max", 0, "maximum model year (inclusive)")
	f.IntVar(&flags.page, "page", 1, "page number, 1-based")
	f.IntVar(&flags.pageSize, "page-size", 10, "records per page")
	f.StringVar(&flags.sortBy, "sort-by", "name", "sort key: name, brand, year, id")
	f.BoolVar(&flags.desc, "desc", false, "sort descending")
	return cmd
}

func newVehiclesAddCmd(a *app) *cobra.Command {
	var v model.Vehicle
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, closeDB, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := g.Vehicles.Create(cmd.Context(), &v); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&v.Name, "name", "", "vehicle name")
	cmd.Flags().StringVar(&v.Brand, "brand", "", "vehicle brand")
	cmd.Flags().IntVar(&v.Year, "year", 0, "model year")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("brand")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func newVehiclesGetCmd(a *app) *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show one vehicle by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, closeDB, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			v, err := g.Vehicles.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "vehicle id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
