package schema

// NsCustomers describes NetSuite customer data.
var NsCustomers = Definition{
	Name:        "ns_customers",
	Description: "NetSuite customer saved search export",
	Fields: []FieldSpec{
		{Name: "salesforce_id_io", Type: FieldText, AllowEmpty: true},
		{Name: "internal_id", Type: FieldText, Required: true},
		{Name: "name", Type: FieldText, AllowEmpty: true},
		{Name: "duplicate", Type: FieldText, AllowEmpty: true},
		{Name: "company_name", Type: FieldText, AllowEmpty: true},
		{Name: "balance", Type: FieldNumeric, AllowEmpty: true},
		{Name: "unbilled_orders", Type: FieldNumeric, AllowEmpty: true},
		{Name: "overdue_balance", Type: FieldNumeric, AllowEmpty: true},
		{Name: "days_overdue", Type: FieldNumeric, AllowEmpty: true},
	},
}

// NsSoDetail describes NetSuite SO detail data.
var NsSoDetail = Definition{
	Name:        "ns_so_detail",
	Description: "NetSuite sales order line detail",
	Fields: []FieldSpec{
		{Name: "sfdc_opp_id", Type: FieldText, AllowEmpty: true},
		{Name: "sfdc_opp_line_id", Type: FieldText, Required: true},
		{Name: "customer_internal_id", Type: FieldText, AllowEmpty: true},
		{Name: "product_internal_id", Type: FieldText, AllowEmpty: true},
		{Name: "customer_project", Type: FieldText, AllowEmpty: true},
		{Name: "so_number", Type: FieldText, AllowEmpty: true},
		{Name: "document_date", Type: FieldDate, AllowEmpty: true},
		{Name: "start_date", Type: FieldDate, AllowEmpty: true},
		{Name: "end_date", Type: FieldDate, AllowEmpty: true},
		{Name: "item_name", Type: FieldText, AllowEmpty: true},
		{Name: "item_display_name", Type: FieldText, AllowEmpty: true},
		{Name: "line_start_date", Type: FieldDate, AllowEmpty: true},
		{Name: "line_end_date", Type: FieldDate, AllowEmpty: true},
		{Name: "quantity", Type: FieldNumeric, AllowEmpty: true},
		{Name: "unit_price", Type: FieldNumeric, AllowEmpty: true},
		{Name: "amount_gross", Type: FieldNumeric, AllowEmpty: true},
		{Name: "terms_days_till_net_due", Type: FieldNumeric, AllowEmpty: true},
	},
}

// NsInvoiceDetail describes NetSuite invoice detail data.
var NsInvoiceDetail = Definition{
	Name:        "ns_invoice_detail",
	Description: "NetSuite invoice line detail",
	Fields: []FieldSpec{
		{Name: "sfdc_opp_id", Type: FieldText, AllowEmpty: true},
		{Name: "sfdc_opp_line_id", Type: FieldText, AllowEmpty: true},
		{Name: "sfdc_pricebook_id", Type: FieldText, AllowEmpty: true},
		{Name: "customer_internal_id", Type: FieldText, AllowEmpty: true},
		{Name: "product_internal_id", Type: FieldText, AllowEmpty: true},
		{Name: "type", Type: FieldEnum, Enum: []string{"Invoice", "Credit Memo"}, AllowEmpty: true},
		{Name: "date", Type: FieldDate, AllowEmpty: true},
		{Name: "date_due", Type: FieldDate, AllowEmpty: true},
		{Name: "document_number", Type: FieldText, AllowEmpty: true},
		{Name: "name", Type: FieldText, AllowEmpty: true},
		{Name: "memo", Type: FieldText, AllowEmpty: true},
		{Name: "item", Type: FieldText, AllowEmpty: true},
		{Name: "qty", Type: FieldNumeric, AllowEmpty: true},
		{Name: "contract_quantity", Type: FieldNumeric, AllowEmpty: true},
		{Name: "unit_price", Type: FieldNumeric, AllowEmpty: true},
		{Name: "amount", Type: FieldNumeric, AllowEmpty: true},
		{Name: "start_date_line", Type: FieldDate, AllowEmpty: true},
		{Name: "end_date_line_level", Type: FieldDate, AllowEmpty: true},
		{Name: "account", Type: FieldText, AllowEmpty: true},
		{Name: "shipping_address_city", Type: FieldText, AllowEmpty: true},
		{Name: "shipping_address_state", Type: FieldState, AllowEmpty: true},
		{Name: "shipping_address_country", Type: FieldText, AllowEmpty: true},
	},
}
