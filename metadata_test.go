package keypager

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type account struct {
	ID       int
	Email    string
	Nickname *string
	TenantID int
	Handle   string
}

func accountColumns() []Column[account] {
	return []Column[account]{
		{Name: "id", PrimaryKey: true, Nullable: true, Get: func(a account) any { return a.ID }},
		{Name: "email", Get: func(a account) any { return a.Email }},
		{Name: "nickname", Nullable: true, Get: func(a account) any { return a.Nickname }},
		{Name: "tenant_id", Get: func(a account) any { return a.TenantID }},
		{Name: "handle", Get: func(a account) any { return a.Handle }},
	}
}

func Test_NewEntityMetadata(t *testing.T) {
	meta, err := NewEntityMetadata("accounts", accountColumns(), []string{"email"}, []string{"tenant_id", "handle"})
	require.NoError(t, err)

	require.Equal(t, "accounts", meta.Name())
	require.Equal(t, "id", meta.PrimaryKey())
	require.Equal(t, []string{"id", "email", "nickname", "tenant_id", "handle"}, meta.Columns())

	tests := []struct {
		column  string
		has     bool
		unique  bool
		notNull bool
	}{
		{"id", true, true, true},
		{"email", true, true, true},
		{"nickname", true, false, false},
		{"tenant_id", true, true, true},
		{"handle", true, true, true},
		{"missing", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			require.Equal(t, tt.has, meta.HasColumn(tt.column))
			require.Equal(t, tt.unique, meta.IsUnique(tt.column))
			require.Equal(t, tt.notNull, meta.IsNotNull(tt.column))
		})
	}
}

func Test_EntityMetadata_Value(t *testing.T) {
	meta := MustEntityMetadata("accounts", accountColumns())
	nick := "neo"
	row := account{ID: 7, Email: "neo@example.com", Nickname: &nick}

	v, ok := meta.Value(row, "email")
	require.True(t, ok)
	require.Equal(t, "neo@example.com", v)

	v, ok = meta.Value(row, "id")
	require.True(t, ok)
	require.Equal(t, 7, v)

	_, ok = meta.Value(row, "missing")
	require.False(t, ok)
}

func Test_NewEntityMetadata_Errors(t *testing.T) {
	getter := func(account) any { return nil }

	tests := []struct {
		name    string
		columns []Column[account]
		unique  [][]string
		wantErr error
	}{
		{
			name:    "no primary key",
			columns: []Column[account]{{Name: "email", Get: getter}},
			wantErr: ErrNoPrimaryKey,
		},
		{
			name: "composite primary key",
			columns: []Column[account]{
				{Name: "tenant_id", PrimaryKey: true, Get: getter},
				{Name: "handle", PrimaryKey: true, Get: getter},
			},
			wantErr: ErrCompositePrimaryKey,
		},
		{
			name:    "unique set with unknown column",
			columns: []Column[account]{{Name: "id", PrimaryKey: true, Get: getter}},
			unique:  [][]string{{"email"}},
			wantErr: ErrUnknownColumn,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEntityMetadata("accounts", tt.columns, tt.unique...)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	invalid := []struct {
		name    string
		columns []Column[account]
	}{
		{"forbidden symbols", []Column[account]{{Name: "id;", PrimaryKey: true, Get: getter}}},
		{"duplicate column", []Column[account]{
			{Name: "id", PrimaryKey: true, Get: getter},
			{Name: "id", Get: getter},
		}},
		{"missing getter", []Column[account]{{Name: "id", PrimaryKey: true}}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEntityMetadata("accounts", tt.columns)
			require.Error(t, err)
		})
	}
}

func Test_MustEntityMetadata_Panics(t *testing.T) {
	require.Panics(t, func() {
		MustEntityMetadata[account]("accounts", nil)
	})
}

func Test_ResolveCursor(t *testing.T) {
	meta := MustEntityMetadata("accounts", accountColumns(), []string{"email"}, []string{"nickname"})

	tests := []struct {
		name   string
		sortBy string
		want   string
	}{
		{"primary key is its own cursor", "id", "id"},
		{"unique non-null column is its own cursor", "email", "email"},
		{"unique nullable column falls back to primary key", "nickname", "id"},
		{"non-unique column falls back to primary key", "handle", "id"},
		{"unknown column falls back to primary key", "missing", "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ResolveCursor(meta, tt.sortBy))
		})
	}

	require.Equal(t, "slug", ResolveCursor(postMeta, "title"))
}
