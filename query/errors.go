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

package query

import (
	"errors"
	"fmt"
)

// ErrQueryFailed matches, through errors.Is, every error the Engine returns
// because storage could not count or fetch.
var ErrQueryFailed = errors.New("query failed")

// QueryFailedError reports a storage failure during a search. Op is
// "count" or "fetch"; Cause is the error storage returned.
type QueryFailedError struct {
	Op    string
	Spec  FilterSpec
	Cause error
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("query failed during %s: %v", e.Op, e.Cause)
}

func (e *QueryFailedError) Unwrap() error {
	return e.Cause
}

func (e *QueryFailedError) Is(target error) bool {
	return target == ErrQueryFailed
}
