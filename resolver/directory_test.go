package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derek2403/token2049/core"
)

func TestLoadDirectoryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "Alice", "phone": "+6591234567", "wallet": "`+aliceWallet+`"},
		{"name": "Bob", "phone": "+6598765432", "wallet": "`+bobWallet+`"}
	]`), 0o600))

	dir, err := LoadDirectory(path)
	require.NoError(t, err)
	assert.Len(t, dir.Contacts(), 2)

	c, ok := dir.FindByName("bob")
	require.True(t, ok)
	assert.Equal(t, bobWallet, c.Wallet)
}

func TestLoadDirectoryYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"- name: Alice\n  phone: \"+6591234567\"\n  wallet: \""+aliceWallet+"\"\n",
	), 0o600))

	dir, err := LoadDirectory(path)
	require.NoError(t, err)
	c, ok := dir.FindByName("Alice")
	require.True(t, ok)
	assert.Equal(t, "+6591234567", c.Phone)
}

func TestLoadDirectoryErrors(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))
	_, err = LoadDirectory(path)
	assert.Error(t, err)
}

func TestFindByNamePrefersExactMatch(t *testing.T) {
	dir := NewDirectory([]core.Contact{{Name: "Alicia"}, {Name: "Ali"}})

	c, ok := dir.FindByName("ali")
	require.True(t, ok)
	assert.Equal(t, "Ali", c.Name)

	c, ok = dir.FindByName("lic")
	require.True(t, ok)
	assert.Equal(t, "Alicia", c.Name)

	_, ok = dir.FindByName("  ")
	assert.False(t, ok)
}

func TestFindByAddress(t *testing.T) {
	dir := testDirectory()

	c, ok := dir.FindByAddress("0xabcd000000000000000000000000000000000003")
	require.True(t, ok)
	assert.Equal(t, "Carol", c.Name)

	_, ok = dir.FindByAddress("0x0000000000000000000000000000000000000000")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	dir := testDirectory()

	assert.Len(t, dir.Search(""), 4)
	assert.Len(t, dir.Search("65987"), 1)
	assert.Len(t, dir.Search("0xabcd"), 4)

	names := []string{}
	for _, c := range dir.Search("ar") {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Carol", "Mary Jane"}, names)
}
