package domain

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

type BlockType string

const (
	BlockTypeText     BlockType = "text"
	BlockTypeCheckbox BlockType = "checkbox"
	BlockTypeHeader   BlockType = "header"
	BlockTypePage     BlockType = "page"
)

// HeaderSize is the heading level of a header block.
type HeaderSize string

const (
	HeaderH1 HeaderSize = "h1"
	HeaderH2 HeaderSize = "h2"
	HeaderH3 HeaderSize = "h3"
)

func (s HeaderSize) Valid() bool {
	switch s {
	case HeaderH1, HeaderH2, HeaderH3:
		return true
	}
	return false
}

const DefaultPageTitle = "Untitled"

// Block is a single content node. Children holds ids only; the blocks
// themselves live in the flat state that owns them.
type Block struct {
	ID        string     `json:"id"`
	Type      BlockType  `json:"type"`
	Title     string     `json:"title"`
	Children  []string   `json:"children"`
	Checked   bool       `json:"checked,omitempty"` // checkbox only
	Size      HeaderSize `json:"size,omitempty"`    // header only
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	type plain Block
	if b.Type != BlockTypeCheckbox {
		return json.Marshal(plain(b))
	}
	return json.Marshal(struct {
		plain
		Checked bool `json:"checked"`
	}{plain(b), b.Checked})
}

// Clone returns a copy that shares no backing array with b.
func (b Block) Clone() Block {
	b.Children = slices.Clone(b.Children)
	if b.Children == nil {
		b.Children = []string{}
	}
	return b
}

// Patch is a partial block as received from callers. The identity fields are
// accepted so a whole block can be decoded into a Patch, but factories never
// copy them onto a new block.
type Patch struct {
	ID        *string     `json:"id,omitempty"`
	Type      *BlockType  `json:"type,omitempty"`
	Title     *string     `json:"title,omitempty"`
	Checked   *bool       `json:"checked,omitempty"`
	Size      *HeaderSize `json:"size,omitempty"`
	Children  []string    `json:"children,omitempty"`
	CreatedAt *int64      `json:"createdAt,omitempty"`
	UpdatedAt *int64      `json:"updatedAt,omitempty"`
}

// ApplyTo copies the fields of p that are overridable for b's type onto b.
// Unknown header sizes are ignored.
func (p Patch) ApplyTo(b Block) Block {
	if p.Title != nil {
		b.Title = *p.Title
	}
	switch b.Type {
	case BlockTypeCheckbox:
		if p.Checked != nil {
			b.Checked = *p.Checked
		}
	case BlockTypeHeader:
		if p.Size != nil && p.Size.Valid() {
			b.Size = *p.Size
		}
	}
	return b
}

// Maker builds a new block of a fixed type from caller overrides.
type Maker func(Patch) Block

// Factory stamps identity and timestamps onto new blocks.
type Factory struct {
	NewID func() string
	Now   func() time.Time
}

// DefaultFactory uses random UUIDs and the wall clock.
var DefaultFactory = Factory{
	NewID: uuid.NewString,
	Now:   time.Now,
}

// Timestamp normalizes t to the precision kept by the serializable form.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func (f Factory) stamp(b Block, t BlockType) Block {
	now := Timestamp(f.Now())
	b.ID = f.NewID()
	b.Type = t
	b.Children = []string{}
	b.CreatedAt = now
	b.UpdatedAt = now
	return b
}

func (f Factory) build(t BlockType, defaults Block, p Patch) Block {
	// the type must be known before applying so variant fields land
	defaults.Type = t
	return f.stamp(p.ApplyTo(defaults), t)
}

func (f Factory) Text(p Patch) Block {
	return f.build(BlockTypeText, Block{}, p)
}

func (f Factory) Checkbox(p Patch) Block {
	return f.build(BlockTypeCheckbox, Block{Checked: false}, p)
}

func (f Factory) Header(p Patch) Block {
	return f.build(BlockTypeHeader, Block{Size: HeaderH1}, p)
}

func (f Factory) Page(p Patch) Block {
	return f.build(BlockTypePage, Block{Title: DefaultPageTitle}, p)
}

// For returns the maker for t. Anything that is not checkbox, header or page
// gets a text block.
func (f Factory) For(t BlockType) Maker {
	switch t {
	case BlockTypeCheckbox:
		return f.Checkbox
	case BlockTypeHeader:
		return f.Header
	case BlockTypePage:
		return f.Page
	default:
		return f.Text
	}
}

func NewTextBlock(p Patch) Block     { return DefaultFactory.Text(p) }
func NewCheckboxBlock(p Patch) Block { return DefaultFactory.Checkbox(p) }
func NewHeaderBlock(p Patch) Block   { return DefaultFactory.Header(p) }
func NewPageBlock(p Patch) Block     { return DefaultFactory.Page(p) }

// FactoryFor returns the default maker for t.
func FactoryFor(t BlockType) Maker {
	return DefaultFactory.For(t)
}
