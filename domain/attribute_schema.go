package domain

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	maxAttributeKeyLen   = 64
	maxAttributeValueLen = 512
	maxAttributes        = 64
)

var attributeKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// AttributeSchema lists the attribute keys an item type accepts. Each key
// maps to a validator tag applied to its value; an empty tag accepts any
// string within the generic limits.
type AttributeSchema struct {
	Type string
	Keys map[string]string
}

// SchemaRegistry validates attribute bags per item type. Types without a
// schema accept any well formed keys.
type SchemaRegistry struct {
	mu       sync.RWMutex
	schemas  map[string]AttributeSchema
	validate *validator.Validate
}

func NewSchemaRegistry(schemas ...AttributeSchema) *SchemaRegistry {
	r := &SchemaRegistry{
		schemas:  make(map[string]AttributeSchema),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, s := range schemas {
		r.Register(s)
	}
	return r
}

// DefaultSchemas returns the registry for the item types the shop trades in.
func DefaultSchemas() *SchemaRegistry {
	return NewSchemaRegistry(
		AttributeSchema{
			Type: "pokemon_tcg",
			Keys: map[string]string{
				"set":      "max=128",
				"number":   "max=16",
				"rarity":   "max=64",
				"language": "oneof=EN JP DE FR IT ES PT KO ZH",
				"edition":  "oneof=1st unlimited shadowless",
				"holo":     "oneof=true false",
				"grade":    "max=32",
			},
		},
		AttributeSchema{
			Type: "magic_tcg",
			Keys: map[string]string{
				"set":      "max=128",
				"number":   "max=16",
				"rarity":   "oneof=common uncommon rare mythic special",
				"language": "oneof=EN JP DE FR IT ES PT KO ZH RU",
				"foil":     "oneof=true false",
			},
		},
		AttributeSchema{
			Type: "video_game",
			Keys: map[string]string{
				"platform":     "max=64",
				"region":       "oneof=PAL NTSC NTSC-J",
				"year":         "numeric,len=4",
				"completeness": "oneof=loose cib sealed",
			},
		},
	)
}

func (r *SchemaRegistry) Register(s AttributeSchema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[s.Type] = s
}

func (r *SchemaRegistry) Schema(itemType string) (AttributeSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[itemType]
	return s, ok
}

// Validate checks attrs against the generic limits and, when itemType has a
// schema, against its keys and value rules.
func (r *SchemaRegistry) Validate(itemType string, attrs Attributes) error {
	if len(attrs) > maxAttributes {
		return NewValidationError("attributes", fmt.Sprintf("at most %d attributes are allowed", maxAttributes))
	}

	schema, typed := r.Schema(itemType)

	for _, k := range attrs.Keys() {
		v := attrs[k]
		field := "attributes." + k

		if len(k) > maxAttributeKeyLen || !attributeKeyPattern.MatchString(k) {
			return NewValidationError(field, "key must be lower snake case and at most 64 characters")
		}
		if len(v) > maxAttributeValueLen {
			return NewValidationError(field, "value is too long")
		}
		if !typed {
			continue
		}

		tag, ok := schema.Keys[k]
		if !ok {
			return NewValidationError(field, fmt.Sprintf("not an attribute of %s", itemType))
		}
		if tag == "" || v == "" {
			continue
		}
		if err := r.validate.Var(v, tag); err != nil {
			return NewValidationError(field, fmt.Sprintf("value %q does not satisfy %s", v, tag))
		}
	}

	return nil
}
