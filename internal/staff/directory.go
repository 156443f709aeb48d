package staff

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"staffattendance/internal/apperr"
	"staffattendance/internal/store"
)

// Role separates administrators from regular staff.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// AdminID is reserved for the sentinel entry.
const AdminID int64 = 0

// Member is one entry in the roster.
type Member struct {
	ID         int64  `json:"id" validate:"gte=0"`
	Name       string `json:"name" validate:"required"`
	Position   string `json:"position"`
	Role       Role   `json:"role" validate:"omitempty,oneof=admin staff"`
	Department string `json:"department,omitempty"`
}

// NewMember is the input to AddMember.
type NewMember struct {
	Name       string
	Position   string
	Role       Role
	Department string
}

// Sentinel returns the Admin entry that is always part of the roster.
func Sentinel() Member {
	return Member{
		ID:         AdminID,
		Name:       "Admin",
		Position:   "Administrator",
		Role:       RoleAdmin,
		Department: "Management",
	}
}

// Directory owns the staff roster.
type Directory struct {
	store store.Store
	lg    *log.Logger
	now   func() time.Time

	mu     sync.Mutex
	lastID int64
}

// NewDirectory creates a directory over s.
func NewDirectory(s store.Store, lg *log.Logger) *Directory {
	if lg == nil {
		lg = log.Default()
	}
	return &Directory{store: s, lg: lg, now: time.Now}
}

// load returns the stored roster; a missing key is an empty roster. When
// some members were unreadable the rest come back with an error matching
// store.ErrPartial, and nothing may be written from them.
func (d *Directory) load(ctx context.Context) ([]Member, error) {
	raw, err := d.store.Get(ctx, store.KeyStaff)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("load staff", err)
	}
	members, err := store.Decode[Member](raw, store.KeyStaff, d.lg)
	if err != nil && !errors.Is(err, store.ErrPartial) {
		return nil, apperr.Storage("load staff", err)
	}
	for i := range members {
		if members[i].Role == "" {
			members[i].Role = RoleStaff
		}
	}
	return members, apperr.Storage("load staff", err)
}

func (d *Directory) save(ctx context.Context, members []Member) error {
	raw, err := store.Encode(members)
	if err != nil {
		return apperr.Storage("encode staff", err)
	}
	if err := d.store.Set(ctx, store.KeyStaff, raw); err != nil {
		return apperr.Storage("save staff", err)
	}
	return nil
}

// withSentinel puts the Admin entry first, replacing any stored copy.
func withSentinel(members []Member) (out []Member, changed bool) {
	out = make([]Member, 0, len(members)+1)
	out = append(out, Sentinel())
	copies := 0
	for _, m := range members {
		if m.ID == AdminID {
			copies++
			continue
		}
		out = append(out, m)
	}
	changed = copies != 1 || members[0] != Sentinel()
	return out, changed
}

// EnsureInitialized writes the sentinel-only roster when nothing is stored
// and reinserts the sentinel into a roster that lost it.
func (d *Directory) EnsureInitialized(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, err := d.load(ctx)
	if err != nil {
		return err
	}
	roster, changed := withSentinel(members)
	if !changed {
		return nil
	}
	return d.save(ctx, roster)
}

// ListAll returns the roster with the sentinel first. A missing or empty
// roster is initialised as a side effect; unreadable storage yields only the
// sentinel.
func (d *Directory) ListAll(ctx context.Context) []Member {
	d.mu.Lock()
	defer d.mu.Unlock()

	members, err := d.load(ctx)
	partial := errors.Is(err, store.ErrPartial)
	if err != nil && !partial {
		d.lg.Printf("staff read failed, serving sentinel only: %v", err)
		return []Member{Sentinel()}
	}
	roster, changed := withSentinel(members)
	if partial {
		d.lg.Printf("staff read incomplete, roster not repaired: %v", err)
	} else if changed {
		if err := d.save(ctx, roster); err != nil {
			d.lg.Printf("staff roster repair failed: %v", err)
		}
	}
	return roster
}

// Get looks up a member by id.
func (d *Directory) Get(ctx context.Context, id int64) (Member, bool) {
	for _, m := range d.ListAll(ctx) {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// AddMember appends a member with a fresh id and returns it.
func (d *Directory) AddMember(ctx context.Context, in NewMember) (Member, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Member{}, apperr.Invalid("name is required")
	}
	role := Role(strings.ToLower(strings.TrimSpace(string(in.Role))))
	switch role {
	case "":
		role = RoleStaff
	case RoleAdmin, RoleStaff:
	default:
		return Member{}, apperr.Invalid("role %q must be admin or staff", in.Role)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	members, err := d.load(ctx)
	if err != nil {
		return Member{}, err
	}
	roster, _ := withSentinel(members)

	maxID := d.lastID
	for _, m := range roster {
		if m.ID > maxID {
			maxID = m.ID
		}
	}
	m := Member{
		ID:         store.NextID(d.now(), maxID),
		Name:       name,
		Position:   strings.TrimSpace(in.Position),
		Role:       role,
		Department: strings.TrimSpace(in.Department),
	}
	if err := d.save(ctx, append(roster, m)); err != nil {
		return Member{}, err
	}
	d.lastID = m.ID
	return m, nil
}

// RemoveMember deletes the member with id. Removing the sentinel or an
// unknown id does nothing.
func (d *Directory) RemoveMember(ctx context.Context, id int64) error {
	if id == AdminID {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	members, err := d.load(ctx)
	if err != nil {
		return err
	}
	roster, changed := withSentinel(members)
	kept := roster[:0:0]
	for _, m := range roster {
		if m.ID == id {
			changed = true
			continue
		}
		kept = append(kept, m)
	}
	if !changed {
		return nil
	}
	return d.save(ctx, kept)
}
