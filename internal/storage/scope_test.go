package storage

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewScope(t *testing.T) {
	tests := []struct {
		name     string
		category string
		docIDs   []int64
		want     Scope
		wantErr  error
	}{
		{name: "empty is unscoped", want: Unscoped()},
		{name: "all is unscoped", category: "all", want: Unscoped()},
		{name: "ALL is unscoped", category: "ALL", want: Unscoped()},
		{name: "category", category: "nda", want: Scope{Kind: ScopeCategory, Category: CategoryNDA}},
		{
			name:     "document ids override category",
			category: "nda",
			docIDs:   []int64{4, 2, 4},
			want:     Scope{Kind: ScopeDocuments, DocumentIDs: []int64{4, 2}},
		},
		{name: "unknown category", category: "leases", wantErr: ErrUnknownCategory},
		{name: "non-positive id", docIDs: []int64{0}, wantErr: ErrInvalidScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewScope(tt.category, tt.docIDs)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewScope() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewScope() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewScope() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScope_String(t *testing.T) {
	tests := []struct {
		scope Scope
		want  string
	}{
		{Unscoped(), "all"},
		{Scope{Kind: ScopeCategory, Category: CategoryLoanAgreements}, "loan_agreements"},
		{Scope{Kind: ScopeDocuments, DocumentIDs: []int64{1, 9}}, "documents 1,9"},
	}
	for _, tt := range tests {
		if got := tt.scope.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestScopeClause(t *testing.T) {
	tests := []struct {
		name     string
		scope    Scope
		ph       func() string
		wantSQL  string
		wantArgs []any
	}{
		{name: "unscoped", scope: Unscoped(), ph: QuestionMarks, wantSQL: "1=1"},
		{
			name:     "category sqlite",
			scope:    Scope{Kind: ScopeCategory, Category: CategoryNDA},
			ph:       QuestionMarks,
			wantSQL:  "d.category = ?",
			wantArgs: []any{"nda"},
		},
		{
			name:     "documents postgres",
			scope:    Scope{Kind: ScopeDocuments, DocumentIDs: []int64{3, 5}},
			ph:       DollarPlaceholders(2),
			wantSQL:  "d.id IN ($2, $3)",
			wantArgs: []any{int64(3), int64(5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotArgs := ScopeClause(tt.scope, "d.id", "d.category", tt.ph)
			if gotSQL != tt.wantSQL {
				t.Errorf("ScopeClause() sql = %q, want %q", gotSQL, tt.wantSQL)
			}
			if !reflect.DeepEqual(gotArgs, tt.wantArgs) {
				t.Errorf("ScopeClause() args = %v, want %v", gotArgs, tt.wantArgs)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := ParseCategory(""); err != nil || c != CategoryGeneral {
		t.Errorf("ParseCategory(\"\") = %q, %v; want general", c, err)
	}
	if c, err := ParseCategory("loan_agreements"); err != nil || c != CategoryLoanAgreements {
		t.Errorf("ParseCategory(loan_agreements) = %q, %v", c, err)
	}
	if _, err := ParseCategory("all"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("ParseCategory(all) error = %v, want ErrUnknownCategory", err)
	}
}
