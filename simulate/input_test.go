package simulate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
	"github.com/jrsteele09/go-tender-client/simulate"
)

func TestDecodeInput(t *testing.T) {
	in, err := simulate.DecodeInput(strings.NewReader(`
items:
  - name: Cement
    unit_price: 60
    quantity: 10
groups:
  - participant_count: 4
    base_reduction: 0.95
    ranges:
      - {start: 1, end: 100, min: 0.8, max: 1.2}
total:
  recommended: 3
  ranges:
    - {min: 0.9, max: 1.0, num: 5}
`))
	require.NoError(t, err)
	require.Len(t, in.Items, 1)
	require.Equal(t, 4, in.Groups[0].ParticipantCount)
	require.Equal(t, 0.95, in.Groups[0].BaseReduction)
	require.Equal(t, 1.2, in.Groups[0].Ranges[0].Max)
	require.Equal(t, 3, in.Total.Recommended)
	require.Equal(t, 5, in.Total.Ranges[0].Num)
}

func TestDecodeInput_UnknownField(t *testing.T) {
	_, err := simulate.DecodeInput(strings.NewReader("groups:\n  - participants: 4\n"))
	require.Error(t, err)
}

func TestLoadInput_ItemsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "items.csv"), []byte("name,unit_price,quantity\nCement,60,10\nRebar,100,4\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sim.yaml"), []byte("items_file: items.csv\ngroups:\n  - participant_count: 2\n    base_reduction: 1\n    ranges:\n      - {start: 1, end: 100, min: 1, max: 1}\n"), 0o600))

	in, err := simulate.LoadInput(filepath.Join(dir, "sim.yaml"))
	require.NoError(t, err)
	require.Len(t, in.Items, 2)
	require.Equal(t, "Rebar", in.Items[1].Name)
}

func TestReadLineItems(t *testing.T) {
	t.Run("aliases and column order", func(t *testing.T) {
		items, err := simulate.ReadLineItems(strings.NewReader("\ufeffQty, Item, Price\n2,Cement,\"1,200.5\"\n,,\n3,Sand,10\n"))
		require.NoError(t, err)
		require.Equal(t, []simulate.LineItem{
			{Name: "Cement", UnitPrice: 1200.5, Quantity: 2},
			{Name: "Sand", UnitPrice: 10, Quantity: 3},
		}, items)
	})

	t.Run("quantity defaults to one", func(t *testing.T) {
		items, err := simulate.ReadLineItems(strings.NewReader("name,unit_price\nCement,5\n"))
		require.NoError(t, err)
		require.Equal(t, 1.0, items[0].Quantity)
	})

	t.Run("missing price column", func(t *testing.T) {
		_, err := simulate.ReadLineItems(strings.NewReader("name,quantity\nCement,5\n"))
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("bad number", func(t *testing.T) {
		_, err := simulate.ReadLineItems(strings.NewReader("name,unit_price\nCement,abc\n"))
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})
}
