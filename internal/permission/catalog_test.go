// AngelaMos | 2026
// catalog_test.go

package permission

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameFor(t *testing.T) {
	assert.Equal(
		t,
		"Identity.Users.Create",
		NameFor(ServiceIdentity, FeatureUsers, ActionCreate),
	)
}

func TestCatalogEntriesAreDottedAndUnique(t *testing.T) {
	seen := make(map[string]bool)

	for _, e := range All() {
		require.Len(t, strings.Split(e.Name, "."), 3, e.Name)
		require.False(t, seen[e.Name], "duplicate %s", e.Name)
		seen[e.Name] = true

		assert.NotEmpty(t, e.Description)
		assert.Contains(
			t,
			[]string{GroupSystemAccess, GroupManagementHierarchy},
			e.Group,
		)
	}

	assert.Len(t, seen, 13)
}

func TestAdminHasEveryPermission(t *testing.T) {
	assert.Equal(t, Names(All()), Names(Admin()))
}

func TestBasicHasNoPermissions(t *testing.T) {
	assert.Empty(t, Basic())
}

func TestLookup(t *testing.T) {
	e, ok := Lookup("System.Stats.Read")
	require.True(t, ok)
	assert.Equal(t, GroupSystemAccess, e.Group)

	_, ok = Lookup("System.Stats.Write")
	assert.False(t, ok)

	assert.True(t, IsValid(RoleClaimsUpdate))
	assert.False(t, IsValid("identity.users.create"))
}

func TestAllReturnsCopy(t *testing.T) {
	entries := All()
	entries[0].Name = "Mutated"

	assert.Equal(t, UsersCreate, All()[0].Name)
}
