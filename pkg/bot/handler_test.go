package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"smelty/pkg/prefs"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockResponder records interaction responses and follow-ups.
type MockResponder struct {
	Responses []*discordgo.InteractionResponse
	Followups []string
}

func (m *MockResponder) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	m.Responses = append(m.Responses, resp)
	return nil
}

func (m *MockResponder) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.Followups = append(m.Followups, data.Content)
	return &discordgo.Message{ID: "mock_msg_id", Content: data.Content}, nil
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func command(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:  discordgo.InteractionApplicationCommand,
		AppID: "app-123",
		Member: &discordgo.Member{
			Nick: "Ally",
			User: &discordgo.User{ID: "u1", Username: "alice", GlobalName: "Alice A."},
		},
		Data: discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
	}}
}

func TestHandler_SmeltyDefersThenFollowsUp(t *testing.T) {
	f := newFixture(t)
	nick := "nickname"
	_, err := f.prefs.Save(context.Background(), "u1", prefs.Update{MentionStyle: &nick})
	require.NoError(t, err)
	f.gen.On("Generate", mock.Anything, mock.Anything, "pitch me").Return("Pivot to AI.", nil)

	h := NewHandler(f.svc, nil)
	r := &MockResponder{}
	h.handleInteraction(r, command("smelty", stringOpt("question", "pitch me")))

	require.Len(t, r.Responses, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, r.Responses[0].Type)
	require.Len(t, r.Followups, 1)
	assert.Equal(t, "**[cynical_vc]** Ally\nPivot to AI.\n🎯 Current Streak: 1", r.Followups[0])
}

func TestHandler_SmeltyChunksLongReplies(t *testing.T) {
	f := newFixture(t)
	minimal, off := "minimal", "off"
	_, err := f.prefs.Save(context.Background(), "u1", prefs.Update{ResponseStyle: &minimal, StreakDisplay: &off})
	require.NoError(t, err)
	f.gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(strings.Repeat("x", 4500), nil)

	h := NewHandler(f.svc, nil)
	r := &MockResponder{}
	h.handleInteraction(r, command("smelty", stringOpt("question", "essay")))

	require.Len(t, r.Followups, 3)
	assert.True(t, strings.HasSuffix(r.Followups[0], " (1/3)"))
	assert.True(t, strings.HasSuffix(r.Followups[2], " (3/3)"))
}

func TestHandler_PrefsAndHelp(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)

	r := &MockResponder{}
	h.handleInteraction(r, command("prefs", stringOpt("response_style", "fancy")))
	require.Len(t, r.Responses, 1)
	assert.Equal(t, "✅ Your preferences have been updated!\n• Response style: `fancy`", r.Responses[0].Data.Content)

	r = &MockResponder{}
	h.handleInteraction(r, command("help"))
	require.Len(t, r.Responses, 1)
	assert.Contains(t, r.Responses[0].Data.Content, "Available Modes")
}

func TestHandler_Invite(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)

	r := &MockResponder{}
	h.handleInteraction(r, command("invite"))
	require.Len(t, r.Responses, 1)
	assert.Contains(t, r.Responses[0].Data.Content, "client_id=app-123")

	h.SetAppID("app-999")
	r = &MockResponder{}
	h.handleInteraction(r, command("invite"))
	assert.Contains(t, r.Responses[0].Data.Content, "client_id=app-999")
}

func TestHandler_IgnoresOtherInteractions(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	r := &MockResponder{}

	unknown := command("dance")
	h.handleInteraction(r, unknown)

	ping := command("help")
	ping.Type = discordgo.InteractionPing
	h.handleInteraction(r, ping)

	assert.Empty(t, r.Responses)
}

func TestHandler_NoUser(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc, nil)
	r := &MockResponder{}

	i := command("smelty", stringOpt("question", "q"))
	i.Member = nil
	h.handleInteraction(r, i)

	require.Len(t, r.Responses, 1)
	assert.Equal(t, msgNoUser, r.Responses[0].Data.Content)
	f.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetUserFromInteraction(t *testing.T) {
	tests := []struct {
		name        string
		interaction *discordgo.InteractionCreate
		want        interactionUser
	}{
		{
			name:        "Guild member with nick",
			interaction: command("help"),
			want:        interactionUser{ID: "u1", Username: "alice", DisplayName: "Ally"},
		},
		{
			name: "Guild member without nick",
			interaction: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				Member: &discordgo.Member{User: &discordgo.User{ID: "u2", Username: "bob", GlobalName: "Bobby"}},
			}},
			want: interactionUser{ID: "u2", Username: "bob", DisplayName: "Bobby"},
		},
		{
			name: "DM user",
			interaction: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
				User: &discordgo.User{ID: "u3", Username: "carol"},
			}},
			want: interactionUser{ID: "u3", Username: "carol", DisplayName: "carol"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := getUserFromInteraction(tt.interaction)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := getUserFromInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}})
	assert.Error(t, err)
}

func TestInviteURL(t *testing.T) {
	url := InviteURL("42")
	assert.Equal(t, "https://discord.com/api/oauth2/authorize?client_id=42&permissions=2147485696&scope=bot%20applications.commands", url)
}

func TestHandler_ShutdownDrainsAndRefuses(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	f.gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return("done", nil).Once()

	h := NewHandler(f.svc, nil)
	inFlight := &MockResponder{}
	handled := make(chan struct{})
	go func() {
		h.handleInteraction(inFlight, command("smelty", stringOpt("question", "slow")))
		close(handled)
	}()
	<-started

	stopped := make(chan struct{})
	go func() {
		h.Shutdown()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Shutdown returned while a command was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-handled
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return after the command finished")
	}
	require.Len(t, inFlight.Followups, 1)

	late := &MockResponder{}
	h.handleInteraction(late, command("help"))
	assert.Empty(t, late.Responses)
	f.gen.AssertNumberOfCalls(t, "Generate", 1)
}
