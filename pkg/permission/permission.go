package permission

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hoardlab/hoard/pkg/identity"
)

// Permissions attaches Unix-style access rights to a stored object. Rights
// are boolean flags keyed "<right>:<entity>"; the conventional rights are
// r, w and x plus the special flags s (setuid) and t (sticky) on "*".
type Permissions struct {
	userName  string
	groupName string
	rights    map[string]bool
}

// New creates permissions owned by user and optionally group. Without a
// mode, owner and group get full r/w/x. Use Make to validate the names
// against a registry first.
func New(user string, group string, mode any) (*Permissions, error) {
	p := &Permissions{
		userName:  user,
		groupName: group,
		rights:    map[string]bool{},
	}

	if mode != nil {
		if err := p.Chmod(mode); err != nil {
			return nil, err
		}
		return p, nil
	}

	p.setUserRights(true, true, true)
	if group != "" {
		p.setGroupRights(true, true, true)
	}
	return p, nil
}

// Make validates user and group against the registry and creates the
// permissions.
func Make(reg *identity.Registry, user, group string, mode any) (*Permissions, error) {
	if !reg.IsKnownEntity(user) {
		return nil, fmt.Errorf("invalid user name: %s", user)
	}
	if group != "" && !reg.IsKnownEntity(group) {
		return nil, fmt.Errorf("invalid group name: %s", group)
	}
	return New(user, group, mode)
}

// Restore rebuilds permissions from their persisted parts.
func Restore(user, group string, rights map[string]bool) *Permissions {
	if rights == nil {
		rights = map[string]bool{}
	}
	return &Permissions{userName: user, groupName: group, rights: rights}
}

// User returns the owning user name.
func (p *Permissions) User() string {
	return p.userName
}

// Group returns the owning group name, or "".
func (p *Permissions) Group() string {
	return p.groupName
}

// Rights returns the live rights map.
func (p *Permissions) Rights() map[string]bool {
	return p.rights
}

func decodeDigit(d int) (r, w, x bool) {
	return d&4 != 0, d&2 != 0, d&1 != 0
}

// Chmod sets the rights from a three- or four-digit octal mode, given as an
// int (0o755), an octal string ("755") or a ready-made rights map. The
// optional fourth digit carries the setuid and sticky flags, stored on "*";
// the set-group bit is ignored. A zero special digit leaves the special
// flags untouched.
func (p *Permissions) Chmod(mode any) error {
	var value int
	switch m := mode.(type) {
	case string:
		parsed, err := strconv.ParseInt(m, 8, 32)
		if err != nil {
			return fmt.Errorf("invalid octal mode %q", m)
		}
		value = int(parsed)
	case map[string]bool:
		p.rights = m
		return nil
	case int:
		value = m
	default:
		return fmt.Errorf("mode must be an int, octal string or rights map, got %T", mode)
	}

	special := (value >> 9) & 0b111
	s, _, t := decodeDigit(special)
	uR, uW, uX := decodeDigit((value >> 6) & 0b111)
	gR, gW, gX := decodeDigit((value >> 3) & 0b111)
	oR, oW, oX := decodeDigit(value & 0b111)

	p.setUserRights(uR, uW, uX)
	if p.groupName != "" {
		p.setGroupRights(gR, gW, gX)
	}
	p.rights["r:*"] = oR
	p.rights["w:*"] = oW
	p.rights["x:*"] = oX

	if special != 0 {
		p.rights["s:*"] = s
		p.rights["t:*"] = t
	}
	return nil
}

// Chown transfers ownership, migrating the previous owner's r/w/x flags to
// the new name.
func (p *Permissions) Chown(newUser string) {
	r := p.takeRight("r:" + p.userName)
	w := p.takeRight("w:" + p.userName)
	x := p.takeRight("x:" + p.userName)

	p.userName = newUser
	p.rights["r:"+newUser] = r
	p.rights["w:"+newUser] = w
	p.rights["x:"+newUser] = x
}

// Chgrp changes the owning group, migrating the previous group's r/w/x
// flags to the new name. Without a previous group the new group gets full
// rights.
func (p *Permissions) Chgrp(newGroup string) {
	r, w, x := true, true, true
	if p.groupName != "" {
		r = p.takeRight("r:" + p.groupName)
		w = p.takeRight("w:" + p.groupName)
		x = p.takeRight("x:" + p.groupName)
	}

	p.groupName = newGroup
	p.rights["r:"+newGroup] = r
	p.rights["w:"+newGroup] = w
	p.rights["x:"+newGroup] = x
}

// takeRight removes a key and returns its previous value, defaulting to
// granted.
func (p *Permissions) takeRight(key string) bool {
	v, ok := p.rights[key]
	if !ok {
		return true
	}
	delete(p.rights, key)
	return v
}

// SetRight grants or revokes a single right for an entity.
func (p *Permissions) SetRight(right, entity string, value bool) {
	p.rights[right+":"+entity] = value
}

func (p *Permissions) setUserRights(r, w, x bool) {
	p.rights["r:"+p.userName] = r
	p.rights["w:"+p.userName] = w
	p.rights["x:"+p.userName] = x
}

func (p *Permissions) setGroupRights(r, w, x bool) {
	p.rights["r:"+p.groupName] = r
	p.rights["w:"+p.groupName] = w
	p.rights["x:"+p.groupName] = x
}

// IsRightGranted evaluates whether entityName holds the right on the object
// these permissions protect. Access is granted when one of three paths
// holds: the entity is the owner, the permission bit for the owner is set
// and the registry grants the right to the owner; the group bit is set, the
// entity inherits (transitively) from the group and the registry grants the
// right to the group; or the others bit is set and the registry grants the
// right to "*". Unknown entities get nothing.
func (p *Permissions) IsRightGranted(reg *identity.Registry, entityName, right string) bool {
	entity := reg.GetEntity(entityName)
	if entity == nil {
		return false
	}

	if entityName == p.userName &&
		p.rights[right+":"+p.userName] &&
		reg.HasRight(p.userName, right) {
		return true
	}

	if p.groupName != "" &&
		p.rights[right+":"+p.groupName] &&
		entity.InheritsFrom(reg, p.groupName) &&
		reg.HasRight(p.groupName, right) {
		return true
	}

	if reg.HasRight(identity.Wildcard, right) && p.rights[right+":*"] {
		return true
	}

	return false
}

// Sticky reports whether the sticky flag is set.
func (p *Permissions) Sticky() bool {
	return p.rights["t:*"]
}

// SetUID reports whether the setuid flag is set.
func (p *Permissions) SetUID() bool {
	return p.rights["s:*"]
}

// ShortString renders the familiar "rwxr-x---" triplet form for owner,
// group and others, a trailing '+' when further entity rights exist, then
// the owner and group names.
func (p *Permissions) ShortString() string {
	flagsFor := func(name string) (string, int) {
		var b strings.Builder
		found := 0
		for _, r := range []string{"r", "w", "x"} {
			flag := "-"
			if v, ok := p.rights[r+":"+name]; ok {
				if v {
					flag = r
				}
				found++
			}
			b.WriteString(flag)
		}
		return b.String(), found
	}

	var b strings.Builder
	tested := 0
	for _, name := range []string{p.userName, p.groupName, "*"} {
		flags, found := flagsFor(name)
		tested += found
		b.WriteString(flags)
	}
	if len(p.rights) > tested {
		b.WriteByte('+')
	}
	fmt.Fprintf(&b, " %s %s", p.userName, p.groupName)
	return b.String()
}

func (p *Permissions) String() string {
	return fmt.Sprintf("%s/%s %v", p.userName, p.groupName, p.rights)
}
