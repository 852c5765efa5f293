package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	declared := peopleTemplate(t)

	tests := []struct {
		name        string
		observed    []string
		declared    *Template
		opts        ReconcileOptions
		wantHeaders []string
		wantErr     error
		wantMsg     string
	}{
		{
			name:        "declared template keeps observed order",
			observed:    []string{"age", "name"},
			declared:    declared,
			wantHeaders: []string{"age", "name"},
		},
		{
			name:        "spreadsheet artifacts are stripped",
			observed:    []string{`="name"`, " 'age' "},
			declared:    declared,
			wantHeaders: []string{"name", "age"},
		},
		{
			name:     "missing required header",
			observed: []string{"name"},
			declared: declared,
			wantErr:  ErrBadValue,
			wantMsg:  "not found: age",
		},
		{
			name:     "case mismatch fails by default",
			observed: []string{"Name", "AGE"},
			declared: declared,
			wantErr:  ErrBadValue,
		},
		{
			name:        "case insensitive matching",
			observed:    []string{"Name", "AGE", "Zip"},
			declared:    declared,
			opts:        ReconcileOptions{CaseInsensitive: true},
			wantHeaders: []string{"name", "age", "Zip"},
		},
		{
			name:     "two headers folding onto one column",
			observed: []string{"name", "NAME", "age"},
			declared: declared,
			opts:     ReconcileOptions{CaseInsensitive: true},
			wantErr:  ErrDuplicateKey,
		},
		{
			name:     "declared column repeated",
			observed: []string{"name", "age", "age"},
			declared: declared,
			wantErr:  ErrDuplicateKey,
		},
		{
			name:        "undeclared column repeated is ignored",
			observed:    []string{"name", "age", "x", "x"},
			declared:    declared,
			wantHeaders: []string{"name", "age", "x", "x"},
		},
		{
			name:        "no template synthesizes one",
			observed:    []string{"a", "b"},
			wantHeaders: []string{"a", "b"},
		},
		{
			name:     "no template with duplicate headers",
			observed: []string{"a", "a"},
			wantErr:  ErrDuplicateKey,
		},
		{
			name:     "blank header line",
			observed: []string{"", " "},
			wantErr:  ErrBadValue,
			wantMsg:  "empty header row",
		},
		{
			name:        "no headers uses declared order",
			declared:    declared,
			opts:        ReconcileOptions{NoHeaders: true},
			wantHeaders: []string{"name", "age", "nickname"},
		},
		{
			name:    "no headers and no template",
			opts:    ReconcileOptions{NoHeaders: true},
			wantErr: ErrNotImplemented,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, headers, err := Reconcile("upload.csv", tt.observed, tt.declared, tt.opts)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantMsg != "" {
					assert.Contains(t, err.Error(), tt.wantMsg)
				}
				return
			}
			require.NoError(t, err)
			require.NotNil(t, tpl)
			assert.Equal(t, tt.wantHeaders, headers)
			if tt.declared != nil {
				assert.Same(t, tt.declared, tpl)
			} else {
				assert.Equal(t, "upload.csv", tpl.Name())
			}
		})
	}
}
