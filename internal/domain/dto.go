package domain

import (
	"encoding/json"
	"time"
)

// BlockDTO is the serializable form of a Block. Timestamps are epoch
// milliseconds.
type BlockDTO struct {
	ID        string     `json:"id"`
	Type      BlockType  `json:"type"`
	Title     string     `json:"title"`
	Children  []string   `json:"children"`
	Checked   bool       `json:"checked,omitempty"`
	Size      HeaderSize `json:"size,omitempty"`
	CreatedAt int64      `json:"createdAt"`
	UpdatedAt int64      `json:"updatedAt"`
}

// MarshalJSON always writes checked on checkbox blocks, false included.
func (d BlockDTO) MarshalJSON() ([]byte, error) {
	type plain BlockDTO
	if d.Type != BlockTypeCheckbox {
		return json.Marshal(plain(d))
	}
	return json.Marshal(struct {
		plain
		Checked bool `json:"checked"`
	}{plain(d), d.Checked})
}

func ToDTO(b Block) BlockDTO {
	b = b.Clone()
	return BlockDTO{
		ID:        b.ID,
		Type:      b.Type,
		Title:     b.Title,
		Children:  b.Children,
		Checked:   b.Checked,
		Size:      b.Size,
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
	}
}

func ToDTOs(blocks []Block) []BlockDTO {
	out := make([]BlockDTO, len(blocks))
	for i, b := range blocks {
		out[i] = ToDTO(b)
	}
	return out
}

// FromDTO is the inverse of ToDTO. Timestamps come back in UTC.
func FromDTO(d BlockDTO) Block {
	b := Block{
		ID:        d.ID,
		Type:      d.Type,
		Title:     d.Title,
		Children:  d.Children,
		Checked:   d.Checked,
		Size:      d.Size,
		CreatedAt: time.UnixMilli(d.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(d.UpdatedAt).UTC(),
	}
	return b.Clone()
}

func FromDTOs(dtos []BlockDTO) []Block {
	out := make([]Block, len(dtos))
	for i, d := range dtos {
		out[i] = FromDTO(d)
	}
	return out
}
