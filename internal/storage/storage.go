package storage

import (
	"errors"
	"fmt"
	"time"

	"botcore/datastore"
	"botcore/pkg/cmd"
)

const (
	commandHistoryLimit = 20
	cooldownsKey        = "_cooldowns"
	guildKeyPrefix      = "guild:"
)

var ErrNoHistory = errors.New("no command history")

type Storage struct {
	ds *datastore.DataStore
}

type CommandHistoryRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Style     string    `json:"style"`
	Param     string    `json:"param"`
	Datetime  time.Time `json:"datetime"`
}

type Record struct {
	Prefix             string                 `json:"prefix,omitempty"`
	CommandsHistory    []CommandHistoryRecord `json:"cmd_history"`
	CategoriesDisabled []string               `json:"categories_disabled,omitempty"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

// NewWithConfig is New with full control over the underlying datastore.
func NewWithConfig(cfg *datastore.Config) (*Storage, error) {
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

func guildKey(guildID string) string { return guildKeyPrefix + guildID }

func (s *Storage) guildRecord(guildID string) (Record, error) {
	var r Record
	if _, err := s.ds.Get(guildKey(guildID), &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// AppendCommandToHistory records an invocation, keeping the latest
// commandHistoryLimit entries per guild.
func (s *Storage) AppendCommandToHistory(guildID string, rec CommandHistoryRecord) error {
	return datastore.Update(s.ds, guildKey(guildID), func(r *Record) error {
		r.CommandsHistory = append(r.CommandsHistory, rec)
		if n := len(r.CommandsHistory); n > commandHistoryLimit {
			r.CommandsHistory = r.CommandsHistory[n-commandHistoryLimit:]
		}
		return nil
	})
}

func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	r, err := s.guildRecord(guildID)
	if err != nil {
		return nil, err
	}
	if len(r.CommandsHistory) == 0 {
		return nil, ErrNoHistory
	}
	return r.CommandsHistory, nil
}

// SetGuildPrefix stores a per-guild prefix; an empty prefix clears it.
func (s *Storage) SetGuildPrefix(guildID, prefix string) error {
	return datastore.Update(s.ds, guildKey(guildID), func(r *Record) error {
		r.Prefix = prefix
		return nil
	})
}

func (s *Storage) GuildPrefix(guildID string) (string, error) {
	r, err := s.guildRecord(guildID)
	return r.Prefix, err
}

// SaveCooldowns replaces the persisted cooldown snapshot.
func (s *Storage) SaveCooldowns(entries map[string]cmd.CooldownEntry) error {
	if err := s.ds.Put(cooldownsKey, entries); err != nil {
		return fmt.Errorf("save cooldowns: %w", err)
	}
	return nil
}

func (s *Storage) LoadCooldowns() (map[string]cmd.CooldownEntry, error) {
	entries := map[string]cmd.CooldownEntry{}
	if _, err := s.ds.Get(cooldownsKey, &entries); err != nil {
		return nil, fmt.Errorf("load cooldowns: %w", err)
	}
	return entries, nil
}

// Flush writes pending changes to disk.
func (s *Storage) Flush() error {
	return s.ds.SaveToFile()
}
