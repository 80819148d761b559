// Package prefs holds per-user display settings and the default persona.
package prefs

import (
	"context"
	"strings"

	"smelty/pkg/store"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrInvalidSetting is returned for values outside a setting's enumeration.
var ErrInvalidSetting = errors.New("invalid setting")

type ResponseStyle string

const (
	StyleNormal  ResponseStyle = "normal"
	StyleFancy   ResponseStyle = "fancy"
	StyleMinimal ResponseStyle = "minimal"
)

type MentionStyle string

const (
	MentionUsername MentionStyle = "username"
	MentionNickname MentionStyle = "nickname"
	MentionNone     MentionStyle = "none"
)

type StreakDisplay string

const (
	StreakOn  StreakDisplay = "on"
	StreakOff StreakDisplay = "off"
)

var (
	ResponseStyles = []ResponseStyle{StyleNormal, StyleFancy, StyleMinimal}
	MentionStyles  = []MentionStyle{MentionUsername, MentionNickname, MentionNone}
	StreakDisplays = []StreakDisplay{StreakOn, StreakOff}
)

func ParseResponseStyle(s string) (ResponseStyle, error) {
	return parse(s, ResponseStyles, store.SettingResponseStyle)
}

func ParseMentionStyle(s string) (MentionStyle, error) {
	return parse(s, MentionStyles, store.SettingMentionStyle)
}

func ParseStreakDisplay(s string) (StreakDisplay, error) {
	return parse(s, StreakDisplays, store.SettingStreakDisplay)
}

func parse[T ~string](s string, allowed []T, name string) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidSetting, "%s: %q", name, s)
}

// DisplaySettings controls how replies are rendered.
type DisplaySettings struct {
	ResponseStyle ResponseStyle
	MentionStyle  MentionStyle
	StreakDisplay StreakDisplay
}

// DefaultDisplaySettings is used for users without a saved record.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		ResponseStyle: StyleNormal,
		MentionStyle:  MentionUsername,
		StreakDisplay: StreakOn,
	}
}

// ShowStreak reports whether the streak block is appended.
func (d DisplaySettings) ShowStreak() bool {
	return d.StreakDisplay != StreakOff
}

// Preferences is a user's saved defaults.
type Preferences struct {
	// DefaultMode is empty when the user has not picked one.
	DefaultMode string
	Display     DisplaySettings
}

// Update names the fields a save should change. Nil fields keep their
// current value; an empty Mode clears the default.
type Update struct {
	Mode          *string
	ResponseStyle *string
	MentionStyle  *string
	StreakDisplay *string
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Mode == nil && u.ResponseStyle == nil && u.MentionStyle == nil && u.StreakDisplay == nil
}

// Service owns the preferences table.
type Service struct {
	store  store.PreferenceStore
	logger *zap.Logger
}

func NewService(s store.PreferenceStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, logger: logger}
}

// Get returns the saved preferences, or defaults when there are none or
// the read fails.
func (s *Service) Get(ctx context.Context, userID string) Preferences {
	rec, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to read preferences", zap.String("user_id", userID), zap.Error(err))
		return Preferences{Display: DefaultDisplaySettings()}
	}
	return fromRecord(rec)
}

// Save validates u, merges it over the current record and persists it.
// Validation errors wrap ErrInvalidSetting; storage errors wrap
// store.ErrPersistence. Mode is not checked against the persona table here.
func (s *Service) Save(ctx context.Context, userID string, u Update) (Preferences, error) {
	if err := u.validate(); err != nil {
		return Preferences{}, err
	}

	rec, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		return Preferences{}, err
	}
	if rec == nil {
		rec = &store.PreferenceRecord{UserID: userID}
	}
	rec.UserID = userID
	if rec.Settings == nil {
		rec.Settings = map[string]string{}
	}

	if u.Mode != nil {
		if *u.Mode == "" {
			rec.DefaultPersona = nil
		} else {
			mode := *u.Mode
			rec.DefaultPersona = &mode
		}
	}
	setIf(rec.Settings, store.SettingResponseStyle, u.ResponseStyle)
	setIf(rec.Settings, store.SettingMentionStyle, u.MentionStyle)
	setIf(rec.Settings, store.SettingStreakDisplay, u.StreakDisplay)

	if err := s.store.UpsertPreferences(ctx, rec); err != nil {
		s.logger.Error("failed to save preferences", zap.String("user_id", userID), zap.Error(err))
		return Preferences{}, err
	}
	return fromRecord(rec), nil
}

func (u Update) validate() error {
	if u.ResponseStyle != nil {
		if _, err := ParseResponseStyle(*u.ResponseStyle); err != nil {
			return err
		}
	}
	if u.MentionStyle != nil {
		if _, err := ParseMentionStyle(*u.MentionStyle); err != nil {
			return err
		}
	}
	if u.StreakDisplay != nil {
		if _, err := ParseStreakDisplay(*u.StreakDisplay); err != nil {
			return err
		}
	}
	return nil
}

func setIf(settings map[string]string, key string, v *string) {
	if v != nil {
		settings[key] = strings.ToLower(strings.TrimSpace(*v))
	}
}

// fromRecord types a raw record. Unknown stored values fall back to defaults.
func fromRecord(rec *store.PreferenceRecord) Preferences {
	p := Preferences{Display: DefaultDisplaySettings()}
	if rec == nil {
		return p
	}
	if rec.DefaultPersona != nil {
		p.DefaultMode = *rec.DefaultPersona
	}
	if v, err := ParseResponseStyle(rec.Settings[store.SettingResponseStyle]); err == nil {
		p.Display.ResponseStyle = v
	}
	if v, err := ParseMentionStyle(rec.Settings[store.SettingMentionStyle]); err == nil {
		p.Display.MentionStyle = v
	}
	if v, err := ParseStreakDisplay(rec.Settings[store.SettingStreakDisplay]); err == nil {
		p.Display.StreakDisplay = v
	}
	return p
}
