// AngelaMos | 2026
// claims.go

// Package claims defines the claim vocabulary written into access tokens and
// an ordered, de-duplicated claim set.
package claims

const (
	TypeNameIdentifier = "NameIdentifier"
	TypeName           = "Name"
	TypeSurname        = "Surname"
	TypeEmail          = "Email"
	TypeMobilePhone    = "MobilePhone"
	TypeRole           = "Role"
	TypePermission     = "Permission"
)

// Claim is a (type, value) assertion about a token subject. Two claims are
// the same claim iff both fields are equal.
type Claim struct {
	Type  string `json:"type"  db:"claim_type"`
	Value string `json:"value" db:"claim_value"`
}

func New(claimType, value string) Claim {
	return Claim{Type: claimType, Value: value}
}

func Permission(value string) Claim {
	return Claim{Type: TypePermission, Value: value}
}

func Role(name string) Claim {
	return Claim{Type: TypeRole, Value: name}
}

// Set keeps claims in first-insertion order and drops repeats.
// The zero value is ready to use. Set is not safe for concurrent mutation.
type Set struct {
	items []Claim
	seen  map[Claim]struct{}
}

func NewSet(cs ...Claim) *Set {
	s := &Set{}
	s.AddAll(cs...)
	return s
}

// Add appends c unless it is already present and reports whether it was added.
func (s *Set) Add(c Claim) bool {
	if s.seen == nil {
		s.seen = make(map[Claim]struct{})
	}
	if _, ok := s.seen[c]; ok {
		return false
	}
	s.seen[c] = struct{}{}
	s.items = append(s.items, c)
	return true
}

func (s *Set) AddAll(cs ...Claim) {
	for _, c := range cs {
		s.Add(c)
	}
}

func (s *Set) Has(claimType, value string) bool {
	if s == nil {
		return false
	}
	_, ok := s.seen[Claim{Type: claimType, Value: value}]
	return ok
}

// Values returns every value of the given type in insertion order.
func (s *Set) Values(claimType string) []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, c := range s.items {
		if c.Type == claimType {
			out = append(out, c.Value)
		}
	}
	return out
}

// First returns the first value of the given type.
func (s *Set) First(claimType string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, c := range s.items {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// All returns a copy of the claims in insertion order.
func (s *Set) All() []Claim {
	if s == nil {
		return nil
	}
	out := make([]Claim, len(s.items))
	copy(out, s.items)
	return out
}

// Types returns the distinct claim types in first-seen order.
func (s *Set) Types() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, c := range s.items {
		if _, ok := seen[c.Type]; ok {
			continue
		}
		seen[c.Type] = struct{}{}
		out = append(out, c.Type)
	}
	return out
}

// Equal reports set equality, ignoring order.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, c := range s.All() {
		if !other.Has(c.Type, c.Value) {
			return false
		}
	}
	return true
}
