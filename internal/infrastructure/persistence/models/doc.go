// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: EntityModel and VersionedModel embedded by every table
//   - trade.go: sale orders, items, invoices, shipments and payments
//   - bookkeeping.go: journal entries and lines, account mappings, document counters
package models

// All lists every model in dependency order, for AutoMigrate in tests
// and tooling. Production schemas come from the SQL migrations.
func All() []any {
	return []any{
		&SaleOrderModel{},
		&SaleOrderItemModel{},
		&InvoiceModel{},
		&InvoiceItemModel{},
		&ShipmentModel{},
		&ShipmentItemModel{},
		&PaymentModel{},
		&JournalEntryModel{},
		&JournalLineModel{},
		&AccountMappingModel{},
		&DocumentCounterModel{},
	}
}
