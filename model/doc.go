// Package model defines the persisted records (vehicles and administrators)
// together with the validation rules applied before they are written.
package model
