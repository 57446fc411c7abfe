package selection

import (
	"errors"
	"sort"

	"canteen/internal/availability"
	"canteen/internal/catalog"
	"canteen/internal/variation"
)

var (
	ErrUnknownOption    = errors.New("option is not part of this group")
	ErrUnavailable      = errors.New("option is not available")
	ErrCategoryRequired = errors.New("choose a category first")
	ErrUnknownAddon     = errors.New("addon is not part of this item")
	ErrAddonRequired    = errors.New("required addons cannot be removed")
)

// ToggleResult tells the caller what a toggle did.
// LimitReached is a signal for the UI, not an error.
type ToggleResult int

const (
	Selected ToggleResult = iota
	Deselected
	Replaced
	LimitReached
)

func (r ToggleResult) String() string {
	switch r {
	case Selected:
		return "selected"
	case Deselected:
		return "deselected"
	case Replaced:
		return "replaced"
	case LimitReached:
		return "limit_reached"
	}
	return "unknown"
}

// Choice is one selected option and, for menu-item options, the state of
// that item's nested groups.
type Choice struct {
	Option variation.Option
	Sub    []*GroupState
}

// SubGroup finds the nested state for a group id
func (c *Choice) SubGroup(id int64) (*GroupState, bool) {
	for _, g := range c.Sub {
		if g.Group.ID == id {
			return g, true
		}
	}
	return nil, false
}

// GroupState is the selection held for one variation group
type GroupState struct {
	Group    variation.Group
	depth    int
	category int64
	choices  []*Choice
}

func NewGroupState(g variation.Group) *GroupState {
	return &GroupState{Group: g}
}

func newNested(g variation.Group) *GroupState {
	return &GroupState{Group: g, depth: 1}
}

// Choices returns the current selection in the order it was made
func (s *GroupState) Choices() []*Choice {
	return s.choices
}

func (s *GroupState) Count() int {
	return len(s.choices)
}

// Category is the active multi-category step, 0 when none
func (s *GroupState) Category() int64 {
	return s.category
}

func (s *GroupState) IsSelected(key string) bool {
	return s.index(key) >= 0
}

// Choice returns the selected choice for key
func (s *GroupState) Choice(key string) (*Choice, bool) {
	if i := s.index(key); i >= 0 {
		return s.choices[i], true
	}
	return nil, false
}

// ChooseCategory picks the first step of a multi-category group.
// Switching to another category drops the current selection.
func (s *GroupState) ChooseCategory(id int64) error {
	if s.Group.Mode != catalog.ModeMultiCategory || !s.Group.HasCategory(id) {
		return ErrUnknownOption
	}
	if s.category != id {
		s.category = id
		s.choices = nil
	}
	return nil
}

// Toggle flips one option following the group's selection type
func (s *GroupState) Toggle(key string) (ToggleResult, error) {
	opt, ok := s.Group.Option(key)
	if !ok {
		return 0, ErrUnknownOption
	}

	if s.Group.Mode == catalog.ModeMultiCategory {
		if s.category == 0 || opt.CategoryID == nil || *opt.CategoryID != s.category {
			return 0, ErrCategoryRequired
		}
	}

	i := s.index(key)

	if !s.Group.Multi() {
		if i >= 0 {
			if s.Group.Required() {
				// re-picking the held option of a required group keeps it
				return Replaced, nil
			}
			s.choices = nil
			return Deselected, nil
		}
		if !opt.Selectable() {
			return 0, ErrUnavailable
		}
		had := len(s.choices) > 0
		s.choices = []*Choice{s.newChoice(opt)}
		if had {
			return Replaced, nil
		}
		return Selected, nil
	}

	if i >= 0 {
		s.choices = append(s.choices[:i], s.choices[i+1:]...)
		return Deselected, nil
	}
	if s.Group.MultiLimit > 0 && len(s.choices) >= s.Group.MultiLimit {
		return LimitReached, nil
	}
	if !opt.Selectable() {
		return 0, ErrUnavailable
	}
	s.choices = append(s.choices, s.newChoice(opt))
	return Selected, nil
}

func (s *GroupState) newChoice(opt variation.Option) *Choice {
	c := &Choice{Option: opt}
	if s.depth == 0 {
		for _, g := range opt.SubGroups {
			c.Sub = append(c.Sub, newNested(g))
		}
	}
	return c
}

func (s *GroupState) index(key string) int {
	for i, c := range s.choices {
		if c.Option.Key == key {
			return i
		}
	}
	return -1
}

// ItemState is the in-progress customization of one menu item
type ItemState struct {
	Item   variation.Item
	Groups []*GroupState
	addons map[int64]bool
}

func NewItemState(item variation.Item) *ItemState {
	s := &ItemState{Item: item, addons: make(map[int64]bool)}
	for _, g := range item.Groups {
		s.Groups = append(s.Groups, NewGroupState(g))
	}
	return s
}

// Group finds the state of a top-level group
func (s *ItemState) Group(id int64) (*GroupState, bool) {
	for _, g := range s.Groups {
		if g.Group.ID == id {
			return g, true
		}
	}
	return nil, false
}

// ToggleAddon flips an optional addon. Required addons are always on.
func (s *ItemState) ToggleAddon(id int64) (ToggleResult, error) {
	a, ok := s.Item.Addon(id)
	if !ok {
		return 0, ErrUnknownAddon
	}
	if a.Required {
		return 0, ErrAddonRequired
	}
	if s.addons[id] {
		delete(s.addons, id)
		return Deselected, nil
	}
	if a.Status != availability.StatusAvailable {
		return 0, ErrUnavailable
	}
	s.addons[id] = true
	return Selected, nil
}

// Addons are the addons that will be charged: required ones plus the
// selected optional ones, by position.
func (s *ItemState) Addons() []variation.Addon {
	var out []variation.Addon
	for _, a := range s.Item.Addons {
		if a.Required || s.addons[a.ID] {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}
