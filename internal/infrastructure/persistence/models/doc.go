// Package models contains GORM persistence models that map to database tables.
// They are kept apart from the domain types so the domain stays free of ORM
// tags; each model has ToDomain/FromDomain mappers used by the repositories.
package models
