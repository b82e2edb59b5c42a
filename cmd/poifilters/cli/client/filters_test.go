package client

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwantia/poifilters/pkg/poi"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	viper.Reset()
	viper.Set("metadata.sqlite.path", filepath.Join(t.TempDir(), "poi_filters.db"))
	viper.Set("log.level", "ERROR")
	t.Cleanup(viper.Reset)
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewFiltersCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestApplyTypes(t *testing.T) {
	f := poi.NewFilter("user_x", "X")
	require.NoError(t, applyTypes(f, []string{"Shop", "sustenance:restaurant", "sustenance:cafe"}))

	assert.Equal(t, poi.AcceptedTypes{
		"shop":       nil,
		"sustenance": poi.NewSubTypes("restaurant", "cafe"),
	}, f.AcceptedTypes)

	assert.Error(t, applyTypes(f, []string{":cafe"}))
	assert.Error(t, applyTypes(f, []string{"shop:"}))
}

func TestFilters_Lifecycle(t *testing.T) {
	setup(t)

	out, err := run(t, "", "create", "--id", "user_food", "--name", "Food", "-t", "sustenance:restaurant")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user_food")

	out, err = run(t, "", "ls")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[1], poi.ShowAllFilterID)
	assert.Contains(t, lines[2], "user_food")

	_, err = run(t, "", "edit", "user_food", "--by-name", "pizza", "-t", "shop")
	require.NoError(t, err)

	out, err = run(t, "", "show", "user_food")
	require.NoError(t, err)
	assert.Contains(t, out, "pizza")
	assert.Contains(t, out, "shop:*")
	assert.NotContains(t, out, "restaurant")

	out, err = run(t, "", "search", "bak")
	require.NoError(t, err)
	assert.Contains(t, out, "user_food")
	assert.Contains(t, out, "std_bakery")

	_, err = run(t, "", "rm", "user_food")
	require.NoError(t, err)

	_, err = run(t, "", "show", "user_food")
	assert.ErrorIs(t, err, poi.ErrNotFound)
}

func TestFilters_RejectsReserved(t *testing.T) {
	setup(t)

	_, err := run(t, "", "rm", "std_shop")
	assert.ErrorIs(t, err, poi.ErrReserved)

	_, err = run(t, "", "create", "--id", poi.CustomFilterID, "--name", "Custom", "-t", "shop")
	assert.ErrorIs(t, err, poi.ErrReserved)
}

func TestFilters_InteractiveSearch(t *testing.T) {
	setup(t)

	out, err := run(t, "rest\n", "search", "-i")
	require.NoError(t, err)
	assert.Contains(t, out, `# "rest"`)
	assert.Contains(t, out, "std_restaurant")
}
