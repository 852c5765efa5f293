package schema

// AnrokTransactions describes Anrok tax transaction reports.
var AnrokTransactions = Definition{
	Name:        "anrok_transactions",
	Description: "Anrok tax transaction report export",
	Fields: []FieldSpec{
		{Name: "Transaction ID", Type: FieldText, Required: true},
		{Name: "Customer ID", Type: FieldText, AllowEmpty: true},
		{Name: "Customer name", Type: FieldText, AllowEmpty: true},
		{Name: "Overall VAT ID validation status", Type: FieldText, AllowEmpty: true},
		{Name: "Valid VAT IDs", Type: FieldText, AllowEmpty: true},
		{Name: "Other VAT IDs", Type: FieldText, AllowEmpty: true},
		{Name: "Invoice date", Type: FieldDate, AllowEmpty: true},
		{Name: "Tax date", Type: FieldDate, AllowEmpty: true},
		{Name: "Transaction currency", Type: FieldText, AllowEmpty: true},
		{Name: "Sales amount", Type: FieldNumeric, AllowEmpty: true},
		{Name: "Exempt reasons", Type: FieldText, AllowEmpty: true},
		{Name: "Tax amount", Type: FieldNumeric, AllowEmpty: true},
		{Name: "Invoice amount", Type: FieldNumeric, AllowEmpty: true},
		{Name: "Void", Type: FieldBool, AllowEmpty: true},
		{Name: "Customer address line 1", Type: FieldText, AllowEmpty: true},
		{Name: "Customer address city", Type: FieldText, AllowEmpty: true},
		{Name: "Customer address region", Type: FieldText, AllowEmpty: true},
		{Name: "Customer address postal code", Type: FieldText, AllowEmpty: true},
		{Name: "Customer address country", Type: FieldText, AllowEmpty: true},
		{Name: "Customer country code", Type: FieldText, AllowEmpty: true, MaxLength: 2},
		{Name: "Jurisdictions", Type: FieldText, AllowEmpty: true},
		{Name: "Jurisdictions IDs", Type: FieldText, AllowEmpty: true},
		{Name: "Return IDs", Type: FieldText, AllowEmpty: true},
	},
}
