// Package services contains the data service's business logic: account
// and token management (UserService), fact storage rules (FactService) and
// the periodic snapshot of the facts table to object storage (Archiver).
package services
