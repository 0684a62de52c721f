package symbols

import (
	"github.com/funvibe/closig/internal/typesystem"
)

// DefineTrait declares a trait with its associated types and returns its ID.
// Declaring the same path twice returns the existing ID.
func (t *TraitTable) DefineTrait(path, lang string, assocNames ...string) typesystem.TraitID {
	if id, ok := t.byPath[path]; ok {
		return id
	}
	id := typesystem.TraitID(len(t.traits))
	data := TraitData{ID: id, Path: path, Lang: lang}
	for _, name := range assocNames {
		assoc := typesystem.AssocTypeID(len(t.assocTypes))
		t.assocTypes = append(t.assocTypes, AssocTypeData{ID: assoc, Name: name, Trait: id})
		data.AssocTypes = append(data.AssocTypes, assoc)
	}
	t.traits = append(t.traits, data)
	t.byPath[path] = id
	return id
}

// AddSupertrait records that trait extends super.
func (t *TraitTable) AddSupertrait(trait, super typesystem.TraitID) {
	if int(trait) < 0 || int(trait) >= len(t.traits) {
		return
	}
	t.traits[trait].Supertraits = append(t.traits[trait].Supertraits, super)
}

// Trait returns the declaration of a trait.
func (t *TraitTable) Trait(id typesystem.TraitID) (TraitData, bool) {
	if int(id) < 0 || int(id) >= len(t.traits) {
		return TraitData{}, false
	}
	return t.traits[id], true
}

// TraitByPath looks up a trait by its canonical path.
func (t *TraitTable) TraitByPath(path string) (typesystem.TraitID, bool) {
	id, ok := t.byPath[path]
	return id, ok
}

// AssocType finds the associated type called name declared by trait.
func (t *TraitTable) AssocType(trait typesystem.TraitID, name string) (typesystem.AssocTypeID, bool) {
	data, ok := t.Trait(trait)
	if !ok {
		return 0, false
	}
	for _, id := range data.AssocTypes {
		if t.assocTypes[id].Name == name {
			return id, true
		}
	}
	return 0, false
}

// AssocTypeInfo returns the declaration of an associated type.
func (t *TraitTable) AssocTypeInfo(id typesystem.AssocTypeID) (AssocTypeData, bool) {
	if int(id) < 0 || int(id) >= len(t.assocTypes) {
		return AssocTypeData{}, false
	}
	return t.assocTypes[id], true
}

// AssociatedTypeTrait returns the trait that declares the associated type.
func (t *TraitTable) AssociatedTypeTrait(id typesystem.AssocTypeID) (typesystem.TraitID, bool) {
	data, ok := t.AssocTypeInfo(id)
	if !ok {
		return 0, false
	}
	return data.Trait, true
}
