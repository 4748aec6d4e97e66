package storage

import (
	"slices"
	"strings"

	"botcore/datastore"
)

// DisableCategory turns off every command in category for a guild.
func (s *Storage) DisableCategory(guildID, category string) error {
	category = strings.ToLower(category)
	return datastore.Update(s.ds, guildKey(guildID), func(r *Record) error {
		if !slices.Contains(r.CategoriesDisabled, category) {
			r.CategoriesDisabled = append(r.CategoriesDisabled, category)
		}
		return nil
	})
}

func (s *Storage) EnableCategory(guildID, category string) error {
	category = strings.ToLower(category)
	return datastore.Update(s.ds, guildKey(guildID), func(r *Record) error {
		r.CategoriesDisabled = slices.DeleteFunc(r.CategoriesDisabled, func(c string) bool { return c == category })
		return nil
	})
}

func (s *Storage) IsCategoryDisabled(guildID, category string) (bool, error) {
	r, err := s.guildRecord(guildID)
	if err != nil {
		return false, err
	}
	return slices.Contains(r.CategoriesDisabled, strings.ToLower(category)), nil
}

func (s *Storage) DisabledCategories(guildID string) ([]string, error) {
	r, err := s.guildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return r.CategoriesDisabled, nil
}
