package bot

import (
	"fmt"
	"strings"

	"smelty/pkg/prefs"
)

const (
	msgProvidersDown = "🤖 Oops! My circuits are a bit tangled right now.\n" +
		"🔄 Give me a moment to recalibrate and try again!\n" +
		"💡 Tip: Try a different mode or question if this persists."

	msgPrefsSaveFailed = "❌ Couldn't save your preferences. Please try again later!"

	msgSomethingWrong = "⚠️ Something went sideways! Don't worry, it's not you - it's me.\n" +
		"🔄 Please try again in a moment!"

	msgNoUser = "❌ Couldn't tell who you are. Please try again!"
)

func cooldownMessage(seconds int) string {
	return fmt.Sprintf("🚫 Whoa there, speed racer! You're moving too fast!\n"+
		"⏳ Take a quick breather (about %d seconds) before your next wild take.\n"+
		"🤔 Perfect time to review your previous chaos or check `/help` for more modes!", seconds)
}

func invalidModeMessage(available []string) string {
	return fmt.Sprintf("❌ Invalid mode! Available modes: %s\n"+
		"💡 Use `/help` to see all features and examples!", codeList(available))
}

func lockedModeMessage(mode string, threshold int) string {
	msg := fmt.Sprintf("❌ You haven't unlocked the %s mode yet!\n"+
		"Keep using the bot to unlock more personalities!", mode)
	if threshold > 0 {
		msg += fmt.Sprintf("\n🔒 Reach a %d day streak to unlock it.", threshold)
	}
	return msg
}

func invalidChoiceMessage[T ~string](setting string, choices []T) string {
	names := make([]string, len(choices))
	for i, c := range choices {
		names[i] = string(c)
	}
	return fmt.Sprintf("❌ Invalid %s! Choose from: %s", setting, strings.Join(names, ", "))
}

func preferencesMessage(p prefs.Preferences) string {
	lines := []string{"🎭 **Your Current Preferences**"}
	if p.DefaultMode != "" {
		lines = append(lines, fmt.Sprintf("• Default mode: `%s`", p.DefaultMode))
	}
	lines = append(lines,
		fmt.Sprintf("• Response style: `%s`", p.Display.ResponseStyle),
		fmt.Sprintf("• Mention style: `%s`", p.Display.MentionStyle),
		fmt.Sprintf("• Streak display: `%s`", p.Display.StreakDisplay),
		"",
		"**To change preferences, use:**",
		"`/prefs default_mode:[mode]` - Set your default personality",
		"`/prefs response_style:[normal/fancy/minimal]` - Change response formatting",
		"`/prefs mention_style:[username/nickname/none]` - Change how you're mentioned",
		"`/prefs streak_display:[on/off]` - Toggle streak info after responses",
	)
	return strings.Join(lines, "\n")
}

func preferencesUpdatedMessage(u prefs.Update) string {
	lines := []string{"✅ Your preferences have been updated!"}
	if u.Mode != nil {
		if *u.Mode == "" {
			lines = append(lines, "• Default mode: cleared")
		} else {
			lines = append(lines, fmt.Sprintf("• Default mode: `%s`", *u.Mode))
		}
	}
	if u.ResponseStyle != nil {
		lines = append(lines, fmt.Sprintf("• Response style: `%s`", strings.ToLower(*u.ResponseStyle)))
	}
	if u.MentionStyle != nil {
		lines = append(lines, fmt.Sprintf("• Mention style: `%s`", strings.ToLower(*u.MentionStyle)))
	}
	if u.StreakDisplay != nil {
		lines = append(lines, fmt.Sprintf("• Streak display: `%s`", strings.ToLower(*u.StreakDisplay)))
	}
	return strings.Join(lines, "\n")
}

func inviteMessage(url string) string {
	return fmt.Sprintf("🎉 **Add me to your server!**\n"+
		"Click here to invite me: %s\n\n"+
		"*I only need basic permissions to send messages and use commands!*", url)
}

func codeList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "`" + id + "`"
	}
	return strings.Join(quoted, ", ")
}
