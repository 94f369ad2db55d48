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

// Command garage manages vehicle records and runs vehicle searches.
//
// Usage:
//
//	# Create the schema
//	garage migrate
//
//	# Create the schema and load the bundled sample data
//	garage migrate --seed
//
//	# Search vehicles
//	garage vehicles search --brand honda --sort-by year --desc
//
//	# Add a vehicle
//	garage vehicles add --name Civic --brand Honda --year 2018
//
//	# Show statistics
//	garage stats
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
