// AngelaMos | 2026
// claims_test.go

package claims

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDeduplicatesOnTypeAndValue(t *testing.T) {
	s := NewSet()

	require.True(t, s.Add(Permission("Identity.Users.Read")))
	require.False(t, s.Add(Permission("Identity.Users.Read")))
	require.True(t, s.Add(Role("Identity.Users.Read")))

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(TypePermission, "Identity.Users.Read"))
	assert.True(t, s.Has(TypeRole, "Identity.Users.Read"))
}

func TestSetKeepsInsertionOrder(t *testing.T) {
	s := NewSet(
		New(TypeEmail, "a@b.c"),
		Role("Admin"),
		Permission("Identity.Roles.Read"),
		Role("Basic"),
		Role("Admin"),
	)

	assert.Equal(t, []Claim{
		{Type: TypeEmail, Value: "a@b.c"},
		{Type: TypeRole, Value: "Admin"},
		{Type: TypePermission, Value: "Identity.Roles.Read"},
		{Type: TypeRole, Value: "Basic"},
	}, s.All())
	assert.Equal(t, []string{"Admin", "Basic"}, s.Values(TypeRole))
	assert.Equal(t, []string{TypeEmail, TypeRole, TypePermission}, s.Types())
}

func TestSetMatchIsCaseSensitive(t *testing.T) {
	s := NewSet(Permission("Identity.Users.Create"))

	assert.False(t, s.Has(TypePermission, "identity.users.create"))
	assert.False(t, s.Has("permission", "Identity.Users.Create"))
}

func TestSetFirst(t *testing.T) {
	s := NewSet(New(TypeEmail, "first@x.io"), New(TypeEmail, "second@x.io"))

	v, ok := s.First(TypeEmail)
	require.True(t, ok)
	assert.Equal(t, "first@x.io", v)

	_, ok = s.First(TypeMobilePhone)
	assert.False(t, ok)
}

func TestSetAllReturnsCopy(t *testing.T) {
	s := NewSet(Role("Basic"))

	all := s.All()
	all[0].Value = "Admin"

	assert.True(t, s.Has(TypeRole, "Basic"))
	assert.False(t, s.Has(TypeRole, "Admin"))
}

func TestSetEqualIgnoresOrder(t *testing.T) {
	a := NewSet(Role("Admin"), Permission("X.Y.Z"))
	b := NewSet(Permission("X.Y.Z"), Role("Admin"))
	c := NewSet(Permission("X.Y.Z"))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestNilSetIsEmpty(t *testing.T) {
	var s *Set

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has(TypeRole, "Admin"))
	assert.Nil(t, s.Values(TypeRole))
	assert.Nil(t, s.All())
}
