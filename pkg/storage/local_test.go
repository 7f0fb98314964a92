package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	userID := uuid.New()
	info, err := store.Save(context.Background(), userID, "march payouts.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "march payouts.csv", info.Name)
	assert.Equal(t, int64(8), info.Size)
	assert.NotContains(t, info.Path, " ")

	r, opened, err := store.Open(context.Background(), userID, info.ID)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
	assert.Equal(t, info.ID, opened.ID)
}

func TestLocalStorage_List(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	userID := uuid.New()
	for _, name := range []string{"one.csv", "two.xlsx"} {
		_, err := store.Save(context.Background(), userID, name, strings.NewReader("data"))
		require.NoError(t, err)
	}

	infos, err := store.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	// Another user sees nothing.
	other, err := store.List(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestLocalStorage_OpenMissing(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Open(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "report.csv", want: "report.csv"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: "my payouts (q1).xlsx", want: "my_payouts__q1_.xlsx"},
		{in: "", want: "upload"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}
}
