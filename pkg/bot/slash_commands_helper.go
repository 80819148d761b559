package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
)

type interactionUser struct {
	ID       string
	Username string
	// DisplayName is the guild nickname, else the global name, else the username.
	DisplayName string
}

// getUserFromInteraction extracts the invoking user. It handles both guild
// (Member) and DM (User) contexts.
func getUserFromInteraction(i *discordgo.InteractionCreate) (interactionUser, error) {
	if i.Member != nil && i.Member.User != nil {
		u := fromUser(i.Member.User)
		if i.Member.Nick != "" {
			u.DisplayName = i.Member.Nick
		}
		return u, nil
	}

	if i.User != nil {
		return fromUser(i.User), nil
	}

	return interactionUser{}, errors.New("could not determine user from interaction")
}

func fromUser(user *discordgo.User) interactionUser {
	display := user.Username
	if user.GlobalName != "" {
		display = user.GlobalName
	}
	return interactionUser{ID: user.ID, Username: user.Username, DisplayName: display}
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(i *discordgo.InteractionCreate) options {
	data := i.ApplicationCommandData()
	m := make(options, len(data.Options))
	for _, opt := range data.Options {
		m[opt.Name] = opt
	}
	return m
}

// get returns the trimmed string option, or nil when it was not supplied.
func (o options) get(name string) *string {
	opt, ok := o[name]
	if !ok {
		return nil
	}
	v := strings.TrimSpace(opt.StringValue())
	return &v
}

func (o options) value(name string) string {
	if v := o.get(name); v != nil {
		return *v
	}
	return ""
}
