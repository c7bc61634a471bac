// Package models contains the GORM persistence models for the domain
// aggregates. Models own the table mappings and column types; conversion to
// and from the domain layer goes through ToDomain/FromDomain so domain types
// never carry persistence concerns beyond their JSONB value objects.
package models
