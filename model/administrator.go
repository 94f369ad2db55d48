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

package model

import (
	"net/mail"
	"strings"

	"github.com/tomoncle/garage/database"
	"github.com/tomoncle/garage/types"
	"github.com/uptrace/bun"
)

const maxEmailLength = 255

// Profile is the role an administrator holds.
type Profile int

const (
	ProfileAdm Profile = iota
	ProfileEditor
)

var profiles = []Profile{ProfileAdm, ProfileEditor}

var _ types.BaseEnum = Profile(0)

func (p Profile) IsValid() bool { return p == ProfileAdm || p == ProfileEditor }

func (p Profile) Number() int {
	if !p.IsValid() {
		return types.IllegalValue
	}
	return int(p)
}

func (p Profile) Name() string {
	switch p {
	case ProfileAdm:
		return "adm"
	case ProfileEditor:
		return "editor"
	default:
		return types.IllegalName
	}
}

func (p Profile) String() string { return p.Name() }

func (p Profile) Desc() string {
	switch p {
	case ProfileAdm:
		return "full access to vehicle records"
	case ProfileEditor:
		return "may read and create vehicle records"
	default:
		return types.IllegalDesc
	}
}

// ParseProfile maps a profile name onto its Profile, ignoring case and
// surrounding whitespace.
func ParseProfile(name string) (Profile, bool) {
	return types.LookupEnum(profiles, strings.TrimSpace(name))
}

// Administrator is an operator account. Credentials live outside this record.
type Administrator struct {
	bun.BaseModel `bun:"table:administrators,alias:a"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Email   string `bun:"email,notnull,unique" json:"email"`
	Profile string `bun:"profile,notnull,default:'editor'" json:"profile"`
}

func init() {
	database.RegisteredModel(database.NewModelAdapter((*Administrator)(nil), 10))
}

// Validate checks the e-mail format and that Profile names a known role.
func (a *Administrator) Validate() error {
	verr := &ValidationError{}
	email := strings.TrimSpace(a.Email)
	switch {
	case email == "":
		verr.add("email must not be empty")
	case len(email) > maxEmailLength:
		verr.add("email must not exceed 255 characters")
	default:
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			verr.add("email must be a valid address")
		}
	}
	if _, ok := ParseProfile(a.Profile); !ok {
		verr.add("profile must be one of adm, editor")
	}
	return verr.orNil()
}
