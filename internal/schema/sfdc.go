package schema

// SfdcCustomers describes Salesforce customer data.
var SfdcCustomers = Definition{
	Name:        "sfdc_customers",
	Description: "Salesforce account export",
	Fields: []FieldSpec{
		{Name: "account_id_casesafe", Type: FieldText, Required: true},
		{Name: "account_name", Type: FieldText, AllowEmpty: true},
		{Name: "last_activity", Type: FieldDate, AllowEmpty: true},
		{Name: "type", Type: FieldText, AllowEmpty: true},
	},
}

// SfdcPriceBook describes Salesforce price book data.
var SfdcPriceBook = Definition{
	Name:        "sfdc_price_book",
	Description: "Salesforce price book entries",
	Fields: []FieldSpec{
		{Name: "price_book_name", Type: FieldText, AllowEmpty: true},
		{Name: "list_price", Type: FieldNumeric, AllowEmpty: true},
		{Name: "product_name", Type: FieldText, AllowEmpty: true},
		{Name: "product_code", Type: FieldText, AllowEmpty: true},
		{Name: "product_id_casesafe", Type: FieldText, Required: true},
	},
}

// SfdcOppDetail describes Salesforce opportunity detail data.
var SfdcOppDetail = Definition{
	Name:        "sfdc_opp_detail",
	Description: "Salesforce opportunity product detail",
	Fields: []FieldSpec{
		{Name: "opportunity_id", Type: FieldText, AllowEmpty: true},
		{Name: "opportunity_product_casesafe_id", Type: FieldText, Required: true},
		{Name: "opportunity_name", Type: FieldText, AllowEmpty: true},
		{Name: "account_name", Type: FieldText, AllowEmpty: true},
		{Name: "close_date", Type: FieldDate, AllowEmpty: true},
		{Name: "booked_date", Type: FieldDate, AllowEmpty: true},
		{Name: "fiscal_period", Type: FieldText, AllowEmpty: true},
		{Name: "payment_schedule", Type: FieldText, AllowEmpty: true},
		{Name: "payment_due", Type: FieldText, AllowEmpty: true},
		{Name: "contract_start_date", Type: FieldDate, AllowEmpty: true},
		{Name: "contract_end_date", Type: FieldDate, AllowEmpty: true},
		{Name: "term_in_months_deprecated", Type: FieldNumeric, AllowEmpty: true},
		{Name: "product_name", Type: FieldText, AllowEmpty: true},
		{Name: "deployment_type", Type: FieldText, AllowEmpty: true},
		{Name: "amount", Type: FieldNumeric, AllowEmpty: true},
		{Name: "quantity", Type: FieldNumeric, AllowEmpty: true},
		{Name: "list_price", Type: FieldNumeric, AllowEmpty: true},
		{Name: "sales_price", Type: FieldNumeric, AllowEmpty: true},
		{Name: "total_price", Type: FieldNumeric, AllowEmpty: true},
		{Name: "start_date", Type: FieldDate, AllowEmpty: true},
		{Name: "end_date", Type: FieldDate, AllowEmpty: true},
		{Name: "term_in_months", Type: FieldNumeric, AllowEmpty: true},
		{Name: "product_code", Type: FieldText, AllowEmpty: true},
		{Name: "total_amount_due_customer", Type: FieldNumeric, AllowEmpty: true},
		{Name: "total_amount_due_partner", Type: FieldNumeric, AllowEmpty: true},
		{Name: "active_product", Type: FieldBool, AllowEmpty: true},
	},
}
