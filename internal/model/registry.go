package model

// All returns every persisted model, in migration order. A new table must be
// added here; tests derive the tenant scoped list from it.
func All() []interface{} {
	return []interface{}{
		&Tenant{}, &User{}, &Account{},

		&Contact{}, &Vehicle{}, &TaskCategory{}, &Task{}, &Activity{}, &Event{},
		&Project{}, &ServiceRecord{}, &CatalogItem{}, &InventoryItem{},

		&Quote{}, &Invoice{}, &Expense{}, &BankAccount{}, &BankTransaction{},
		&BankReconciliation{}, &VATRate{}, &PaymentTerm{}, &CustomPaymentMethod{},
		&FinancialReport{}, &TaxDocument{}, &PayrollDocument{},

		&Document{}, &LegalDocument{}, &Litigation{},

		&Conversation{}, &Message{}, &EmailAccount{}, &Email{}, &Webhook{},

		&AuditLog{}, &AccessLog{}, &AIUsage{}, &TeamInvitation{}, &UserConsent{},
		&DSARRequest{}, &DataRetentionPolicy{},
	}
}
