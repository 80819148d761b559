// Package format renders the final reply text.
package format

import (
	"fmt"
	"strings"

	"smelty/pkg/persona"
	"smelty/pkg/prefs"
	"smelty/pkg/streak"
)

// MaxMessageLength is Discord's content limit.
const MaxMessageLength = 2000

// User carries the names a mention can be built from.
type User struct {
	Username    string
	DisplayName string
}

// UnlockMessager supplies the announcement for a reward id.
type UnlockMessager interface {
	UnlockMessage(id string) string
}

type Input struct {
	Text          string
	Mode          string
	Display       prefs.DisplaySettings
	User          User
	Streak        streak.State
	NewlyUnlocked []string
	Tiers         []persona.RewardTier
	Messages      UnlockMessager
}

// Mention renders the user per style. It is empty for MentionNone.
func Mention(style prefs.MentionStyle, u User) string {
	switch style {
	case prefs.MentionUsername:
		return "@" + u.Username
	case prefs.MentionNickname:
		if u.DisplayName != "" {
			return u.DisplayName
		}
		return u.Username
	}
	return ""
}

// Format composes the reply from the model output and the user's streak.
func Format(in Input) string {
	var b strings.Builder

	mention := Mention(in.Display.MentionStyle, in.User)
	switch in.Display.ResponseStyle {
	case prefs.StyleFancy:
		fmt.Fprintf(&b, "```diff\n+ %s MODE\n```\n%s\n%s", strings.ToUpper(in.Mode), mention, in.Text)
	case prefs.StyleMinimal:
		b.WriteString(in.Text)
	default:
		fmt.Fprintf(&b, "**[%s]** %s\n%s", in.Mode, mention, in.Text)
	}

	if in.Display.ShowStreak() {
		b.WriteString(StreakBlock(in.Streak, in.NewlyUnlocked, in.Tiers, in.Messages))
	}
	return b.String()
}

// StreakBlock is the trailer appended when streak display is on.
func StreakBlock(st streak.State, newly []string, tiers []persona.RewardTier, msgs UnlockMessager) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n🎯 Current Streak: %d", st.Current)
	if st.Highest > st.Current {
		fmt.Fprintf(&b, " (Highest: %d)", st.Highest)
	}

	if len(newly) > 0 {
		b.WriteString("\n\n🎉 **New Rewards Unlocked!**")
		for _, id := range newly {
			b.WriteString("\n")
			if msgs != nil {
				b.WriteString(msgs.UnlockMessage(id))
			} else {
				b.WriteString(id)
			}
		}
	} else if st.Current >= 5 {
		if next, ok := persona.NextThreshold(tiers, st.Current); ok {
			fmt.Fprintf(&b, "\n👀 Next reward at %d streak!", next)
		}
	}
	return b.String()
}

// Split cuts content longer than limit into pieces suffixed " (i/n)" so that
// every piece, suffix included, fits in limit runes. Content within limit is
// returned unchanged.
func Split(content string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	runes := []rune(content)
	if len(runes) <= limit {
		return []string{content}
	}

	size, n := chunkSize(len(runes), limit)
	chunks := make([]string, 0, n)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	for i := range chunks {
		chunks[i] = fmt.Sprintf("%s (%d/%d)", chunks[i], i+1, len(chunks))
	}
	return chunks
}

// chunkSize picks a piece length that leaves room for the widest " (n/n)"
// suffix. Growing n can widen the suffix, so it iterates until stable.
func chunkSize(total, limit int) (size, n int) {
	n = 1
	for {
		size = limit - len(fmt.Sprintf(" (%d/%d)", n, n))
		if size < 1 {
			size = 1
		}
		next := (total + size - 1) / size
		if next <= n {
			return size, n
		}
		n = next
	}
}
