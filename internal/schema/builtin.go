package schema

import (
	"github.com/JonMunkholm/sheetrow/internal/core"
)

// Builtins returns the built-in definitions in registration order.
func Builtins() []Definition {
	return []Definition{
		AnrokTransactions,
		NsCustomers,
		NsSoDetail,
		NsInvoiceDetail,
		SfdcCustomers,
		SfdcPriceBook,
		SfdcOppDetail,
	}
}

// RegisterBuiltins adds every built-in template to reg.
func RegisterBuiltins(reg *core.Registry) error {
	var errs core.ErrorGroup[error]
	for _, d := range Builtins() {
		t, err := d.Template()
		if err != nil {
			errs.Add(err)
			continue
		}
		if err := reg.Register(t); err != nil {
			errs.Add(err)
		}
	}
	return errs.ErrOrNil()
}
